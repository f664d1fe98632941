package validators

import (
	"errors"
	"testing"

	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func TestValidateRecordCreate(t *testing.T) {
	req := &models.DailyRecordCreateRequest{
		Date:            "2024-05-16",
		WorkerName:      "  Catalina <script>alert(1)</script> ",
		RidesToday:      3,
		AdminRides:      9, // se acepta: la diferencia queda negativa
		CashInBox:       decimal.NewFromInt(12000),
		ToysSoldDetails: "<b>Peluche</b> x2",
	}
	if err := ValidateRecordCreate(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.WorkerName != "Catalina" {
		t.Fatalf("worker name not sanitised: %q", req.WorkerName)
	}
	if req.ToysSoldDetails != "Peluche x2" {
		t.Fatalf("details not sanitised: %q", req.ToysSoldDetails)
	}

	req.CardPayments = decimal.NewFromInt(-1)
	err := ValidateRecordCreate(req)
	if !errors.Is(err, ErrNegativeAmount) || !errors.Is(err, utils.ErrInvalidInput) {
		t.Fatalf("expected negative amount error, got %v", err)
	}
}

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"0", nil},
		{"12500.50", nil},
		{"100.000", nil}, // mismo valor que 100.00
		{"0.004", ErrAmountPrecision},
		{"10.125", ErrAmountPrecision},
		{"-1", ErrNegativeAmount},
		{"1000000000.01", ErrAmountTooLarge},
	}
	for _, tc := range cases {
		err := ValidateAmount("cash_in_box", decimal.RequireFromString(tc.in))
		if tc.want == nil {
			if err != nil {
				t.Fatalf("ValidateAmount(%s): unexpected error %v", tc.in, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) || !errors.Is(err, utils.ErrInvalidInput) {
			t.Fatalf("ValidateAmount(%s): expected %v, got %v", tc.in, tc.want, err)
		}
	}

	sub := decimal.RequireFromString("0.004")
	if err := ValidateRecordUpdate(&models.DailyRecordUpdateRequest{CashInBox: &sub}); !errors.Is(err, ErrAmountPrecision) {
		t.Fatalf("update with sub-cent amount: expected precision error, got %v", err)
	}
}

func TestValidateRecordUpdate_OnlyPresentFields(t *testing.T) {
	if err := ValidateRecordUpdate(&models.DailyRecordUpdateRequest{}); err != nil {
		t.Fatalf("empty update should be valid: %v", err)
	}
	neg := decimal.NewFromInt(-5)
	if err := ValidateRecordUpdate(&models.DailyRecordUpdateRequest{CashWithdrawn: &neg}); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected negative amount error, got %v", err)
	}
	bad := "2024-02-30"
	if err := ValidateRecordUpdate(&models.DailyRecordUpdateRequest{Date: &bad}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
}

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{"  josefa ", "josefa", true},
		{"nico.r-2", "nico.r-2", true},
		{"ab", "", false},
		{"ana maria", "", false},
		{"<admin>", "", false},
	}
	for _, tc := range cases {
		got, err := ValidateUsername(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("ValidateUsername(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestRegisteredTags(t *testing.T) {
	v := validator.New()
	Register(v)

	type payload struct {
		Date  string `validate:"isodate"`
		Start string `validate:"omitempty,hhmm"`
		Month string `validate:"omitempty,yearmonth"`
	}

	valid := payload{Date: "2024-05-16", Start: "22:30", Month: "2024-05"}
	if err := v.Struct(valid); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	for _, bad := range []payload{
		{Date: "16/05/2024"},
		{Date: "2024-05-16", Start: "7:00"},
		{Date: "2024-05-16", Month: "2024-5"},
	} {
		if err := v.Struct(bad); err == nil {
			t.Fatalf("invalid payload accepted: %+v", bad)
		}
	}
}

func TestValidateRidesCalculation(t *testing.T) {
	ok := &models.RidesCalculationRequest{DinoCounts: []int{1, 2, 3, 4, 5, 6}}
	if err := ValidateRidesCalculation(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tooMany := &models.RidesCalculationRequest{DinoCounts: []int{1, 2, 3, 4, 5, 6, 7}}
	if err := ValidateRidesCalculation(tooMany); !errors.Is(err, ErrTooManyCounters) {
		t.Fatalf("expected too many counters, got %v", err)
	}
}
