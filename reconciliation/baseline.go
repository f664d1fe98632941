package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BaselinePolicy define de dónde sale la base de efectivo al crear un cierre.
type BaselinePolicy string

const (
	// BaselineCashInBox usa el efectivo que quedó en caja en el último cierre.
	// Es la política por defecto.
	BaselineCashInBox BaselinePolicy = "cash_in_box"
	// BaselineCarriedForward usa total_counted - daily_cash_generated del último cierre.
	BaselineCarriedForward BaselinePolicy = "carried_forward"
)

// PriorClose son los valores del cierre anterior que puede necesitar una política.
type PriorClose struct {
	CashInBox          decimal.Decimal
	TotalCounted       decimal.Decimal
	DailyCashGenerated decimal.Decimal
}

// ParseBaselinePolicy acepta "" como la política por defecto.
func ParseBaselinePolicy(s string) (BaselinePolicy, error) {
	switch BaselinePolicy(s) {
	case "", BaselineCashInBox:
		return BaselineCashInBox, nil
	case BaselineCarriedForward:
		return BaselineCarriedForward, nil
	}
	return "", fmt.Errorf("política de base de efectivo desconocida: %q", s)
}

// PreviousClosingCash retorna la base de efectivo para el cierre siguiente a prior.
// Sin cierre anterior la base es cero.
func (p BaselinePolicy) PreviousClosingCash(prior *PriorClose) decimal.Decimal {
	if prior == nil {
		return decimal.Zero
	}
	if p == BaselineCarriedForward {
		return ReconstructPreviousClosingCash(prior.TotalCounted, prior.DailyCashGenerated)
	}
	return prior.CashInBox
}
