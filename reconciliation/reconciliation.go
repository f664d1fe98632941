// Package reconciliation contiene el cálculo del cierre de caja diario.
//
// Es la única implementación de la fórmula: la usan tanto el alta de un
// cierre (la base de efectivo viene del último registro guardado) como la
// edición posterior de un registro (la base se reconstruye desde los valores
// que el propio registro tenía antes de editarse).
//
// Al crear, la base por defecto es el efectivo que quedó en caja en el último
// cierre (BaselineCashInBox), que es lo que el formulario de cierre siempre
// precargó. BaselineCarriedForward toma en cambio total_counted -
// daily_cash_generated del último cierre; se elige con CLOSING_CASH_SOURCE.
package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RidePrice es el valor de una vuelta.
var RidePrice = decimal.NewFromInt(4000)

// Status es el estado del cierre de caja.
type Status string

const (
	StatusCuadra    Status = "CUADRA"
	StatusExcedente Status = "EXCEDENTE"
	StatusFaltante  Status = "FALTANTE"
)

// Input son los datos crudos de un cierre más la base de efectivo del día anterior.
type Input struct {
	RidesToday          int
	AdminRides          int
	ToysSoldTotal       decimal.Decimal
	CashWithdrawn       decimal.Decimal
	CashInBox           decimal.Decimal
	CardPayments        decimal.Decimal
	PreviousClosingCash decimal.Decimal
}

// Result son los campos derivados de un cierre.
type Result struct {
	EffectiveRides      int             `json:"effective_rides"`
	ExpectedIncome      decimal.Decimal `json:"expected_income"`
	TotalCounted        decimal.Decimal `json:"total_counted"`
	DailyCashGenerated  decimal.Decimal `json:"daily_cash_generated"`
	Difference          decimal.Decimal `json:"difference"`
	Status              Status          `json:"status"`
	PreviousClosingCash decimal.Decimal `json:"previous_closing_cash"`
}

// Snapshot son los valores derivados guardados de un registro antes de editarlo.
type Snapshot struct {
	TotalCounted       decimal.Decimal
	DailyCashGenerated decimal.Decimal
}

// EffectiveRides no recorta: si admin > rides el resultado es negativo.
func EffectiveRides(rides, admin int) int {
	return rides - admin
}

// ExpectedIncome retorna effective * RidePrice + toys.
func ExpectedIncome(effective int, toys decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(effective)).Mul(RidePrice).Add(toys)
}

// TotalCounted suma efectivo retirado, efectivo en caja y pagos con tarjeta.
func TotalCounted(withdrawn, inBox, card decimal.Decimal) decimal.Decimal {
	return withdrawn.Add(inBox).Add(card)
}

// Classify particiona el signo de la diferencia.
func Classify(difference decimal.Decimal) Status {
	switch difference.Sign() {
	case 0:
		return StatusCuadra
	case 1:
		return StatusExcedente
	default:
		return StatusFaltante
	}
}

// Compute aplica la fórmula completa del cierre. No tiene efectos secundarios.
func Compute(in Input) Result {
	effective := EffectiveRides(in.RidesToday, in.AdminRides)
	expected := ExpectedIncome(effective, in.ToysSoldTotal)
	counted := TotalCounted(in.CashWithdrawn, in.CashInBox, in.CardPayments)
	generated := counted.Sub(in.PreviousClosingCash)
	difference := generated.Sub(expected)

	return Result{
		EffectiveRides:      effective,
		ExpectedIncome:      expected,
		TotalCounted:        counted,
		DailyCashGenerated:  generated,
		Difference:          difference,
		Status:              Classify(difference),
		PreviousClosingCash: in.PreviousClosingCash,
	}
}

// ReconstructPreviousClosingCash deduce la base de efectivo de un registro ya
// guardado a partir de sus propios campos derivados.
func ReconstructPreviousClosingCash(totalCounted, dailyCashGenerated decimal.Decimal) decimal.Decimal {
	return totalCounted.Sub(dailyCashGenerated)
}

// Recompute es el camino de edición: la base sale del snapshot previo a la
// edición y nunca de otro registro. Cualquier PreviousClosingCash en edited se ignora.
func Recompute(stored Snapshot, edited Input) Result {
	edited.PreviousClosingCash = ReconstructPreviousClosingCash(stored.TotalCounted, stored.DailyCashGenerated)
	return Compute(edited)
}

// ParseStatus valida un estado recibido como texto.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusCuadra, StatusExcedente, StatusFaltante:
		return Status(s), nil
	}
	return "", fmt.Errorf("estado de caja inválido: %q", s)
}
