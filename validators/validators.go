package validators

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/NicolasR-dev/dinocars-web/calendar"
	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

var (
	// Política de sanitización HTML (muy restrictiva)
	htmlPolicy = bluemonday.StrictPolicy()

	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]+$`)

	registerOnce sync.Once
)

// Monto máximo aceptado para un campo de dinero
var maxAmount = decimal.NewFromInt(1_000_000_000)

// Decimales de las columnas decimal(15,2)
const amountPlaces = 2

// Errores comunes de validación
var (
	ErrNegativeAmount  = fmt.Errorf("%w: los montos no pueden ser negativos", utils.ErrInvalidInput)
	ErrAmountTooLarge  = fmt.Errorf("%w: el monto excede el límite permitido", utils.ErrInvalidInput)
	ErrAmountPrecision = fmt.Errorf("%w: los montos admiten a lo sumo 2 decimales", utils.ErrInvalidInput)
	ErrInvalidUsername = fmt.Errorf("%w: el usuario solo admite letras, números, punto, guion y guion bajo", utils.ErrInvalidInput)
	ErrInvalidRole     = fmt.Errorf("%w: rol inválido", utils.ErrInvalidInput)
	ErrInvalidTime     = fmt.Errorf("%w: hora inválida (HH:MM)", utils.ErrInvalidInput)
	ErrInvalidDate     = fmt.Errorf("%w: fecha inválida (YYYY-MM-DD)", utils.ErrInvalidInput)
	ErrTooManyCounters = fmt.Errorf("%w: se esperan a lo sumo 6 contadores", utils.ErrInvalidInput)
)

// RegisterBindingValidations registra los tags isodate, hhmm y yearmonth
// en el validador que usa gin para ShouldBind*.
func RegisterBindingValidations() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			Register(v)
		}
	})
}

// Register agrega los tags propios a un validador
func Register(v *validator.Validate) {
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		_, _, err := calendar.ParseYearMonth(fl.Field().String())
		return err == nil
	})
}

// ValidateAmount rechaza montos negativos, absurdamente grandes o con más
// decimales de los que guarda la columna. "100.000" es válido; "0.004" no.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%s: %w", field, ErrNegativeAmount)
	}
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%s: %w", field, ErrAmountTooLarge)
	}
	if !amount.Equal(amount.Round(amountPlaces)) {
		return fmt.Errorf("%s: %w", field, ErrAmountPrecision)
	}
	return nil
}

// ValidateRecordCreate valida los montos y sanitiza los textos libres.
// No valida combinaciones como admin_rides > rides_today: el cierre se
// calcula igual y la diferencia queda a la vista.
func ValidateRecordCreate(req *models.DailyRecordCreateRequest) error {
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"cash_withdrawn", req.CashWithdrawn},
		{"cash_in_box", req.CashInBox},
		{"card_payments", req.CardPayments},
		{"toys_sold_total", req.ToysSoldTotal},
	}
	for _, a := range amounts {
		if err := ValidateAmount(a.name, a.value); err != nil {
			return err
		}
	}

	if _, err := calendar.ParseDate(req.Date); err != nil {
		return ErrInvalidDate
	}

	req.WorkerName = SanitizeString(SanitizeHTML(req.WorkerName))
	req.ToysSoldDetails = SanitizeString(SanitizeHTML(req.ToysSoldDetails))
	return nil
}

// ValidateRecordUpdate valida solo los campos presentes
func ValidateRecordUpdate(req *models.DailyRecordUpdateRequest) error {
	amounts := []struct {
		name  string
		value *decimal.Decimal
	}{
		{"cash_withdrawn", req.CashWithdrawn},
		{"cash_in_box", req.CashInBox},
		{"card_payments", req.CardPayments},
		{"toys_sold_total", req.ToysSoldTotal},
	}
	for _, a := range amounts {
		if a.value == nil {
			continue
		}
		if err := ValidateAmount(a.name, *a.value); err != nil {
			return err
		}
	}

	if req.Date != nil {
		if _, err := calendar.ParseDate(*req.Date); err != nil {
			return ErrInvalidDate
		}
	}
	if req.WorkerName != nil {
		clean := SanitizeString(SanitizeHTML(*req.WorkerName))
		req.WorkerName = &clean
	}
	if req.ToysSoldDetails != nil {
		clean := SanitizeString(SanitizeHTML(*req.ToysSoldDetails))
		req.ToysSoldDetails = &clean
	}
	return nil
}

// ValidateRidesCalculation valida la cantidad de contadores
func ValidateRidesCalculation(req *models.RidesCalculationRequest) error {
	if len(req.DinoCounts) > 6 {
		return ErrTooManyCounters
	}
	for i, c := range req.DinoCounts {
		if c < 0 {
			return fmt.Errorf("%w: el contador %d es negativo", utils.ErrInvalidInput, i+1)
		}
	}
	return nil
}

// ValidateUsername normaliza y valida un nombre de usuario
func ValidateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 100 {
		return "", fmt.Errorf("%w: el usuario debe tener entre 3 y 100 caracteres", utils.ErrInvalidInput)
	}
	if !usernameRegex.MatchString(username) {
		return "", ErrInvalidUsername
	}
	return username, nil
}

// ValidateRole valida que el rol exista
func ValidateRole(role string) error {
	if !models.ValidRole(role) {
		return ErrInvalidRole
	}
	return nil
}

// ValidateClock valida una hora HH:MM opcional
func ValidateClock(value *string) error {
	if value == nil || *value == "" {
		return nil
	}
	if _, err := calendar.ParseClock(*value); err != nil {
		return ErrInvalidTime
	}
	return nil
}

// SanitizeHTML elimina todo el HTML de un string
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// SanitizeString quita espacios y caracteres de control
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)

	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, input)
}
