package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/reconciliation"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	prev := utils.Logger
	utils.Logger = zap.New(core)
	t.Cleanup(func() { utils.Logger = prev })
	return logs
}

func closeRequest(date string, cashInBox int64) *models.DailyRecordCreateRequest {
	return &models.DailyRecordCreateRequest{
		Date:          date,
		WorkerName:    "Catalina",
		RidesToday:    100,
		AdminRides:    10,
		ToysSoldTotal: d(5000),
		CashWithdrawn: d(100000),
		CashInBox:     d(cashInBox),
		CardPayments:  d(220000),
	}
}

func TestRecordService_CreateUsesLastRecordAsBaseline(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecordService(db, nil, reconciliation.BaselineCashInBox)
	ctx := context.Background()

	first, err := svc.Create(ctx, closeRequest("2024-05-01", 30000), "worker1")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	// Sin historial la base es cero: 350000 contado - 365000 esperado
	if !first.Difference.Equal(d(-15000)) || first.Status != string(reconciliation.StatusFaltante) {
		t.Fatalf("first: unexpected difference %s / %s", first.Difference, first.Status)
	}
	if first.TotalAccumulatedPrev != 0 || first.TotalAccumulatedToday != 100 {
		t.Fatalf("first: unexpected accumulated %d -> %d", first.TotalAccumulatedPrev, first.TotalAccumulatedToday)
	}

	second, err := svc.Create(ctx, closeRequest("2024-05-02", 50000), "worker1")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.EffectiveRides != 90 {
		t.Fatalf("effective rides: expected 90, got %d", second.EffectiveRides)
	}
	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"expected_income", second.ExpectedIncome.IntPart(), 365000},
		{"total_counted", second.TotalCounted.IntPart(), 370000},
		{"daily_cash_generated", second.DailyCashGenerated.IntPart(), 340000},
		{"difference", second.Difference.IntPart(), -25000},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s: expected %d, got %d", c.name, c.want, c.got)
		}
	}
	if second.Status != string(reconciliation.StatusFaltante) {
		t.Fatalf("expected FALTANTE, got %s", second.Status)
	}
	if second.TotalAccumulatedPrev != 100 || second.TotalAccumulatedToday != 200 {
		t.Fatalf("second: unexpected accumulated %d -> %d", second.TotalAccumulatedPrev, second.TotalAccumulatedToday)
	}
	if second.SubmittedBy != "worker1" {
		t.Fatalf("submitted_by not stored: %q", second.SubmittedBy)
	}

	stored, err := svc.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.Difference.Equal(d(-25000)) {
		t.Fatalf("stored difference: expected -25000, got %s", stored.Difference)
	}
}

func TestRecordService_CarriedForwardPolicy(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecordService(db, nil, reconciliation.BaselineCarriedForward)
	ctx := context.Background()

	// Primer cierre: contado 350000, generado 350000 => base arrastrada 0
	if _, err := svc.Create(ctx, closeRequest("2024-05-01", 30000), "w"); err != nil {
		t.Fatalf("create first: %v", err)
	}
	preview, err := svc.Preview(ctx, closeRequest("2024-05-02", 50000))
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !preview.PreviousClosingCash.IsZero() {
		t.Fatalf("expected carried forward baseline 0, got %s", preview.PreviousClosingCash)
	}
	if preview.BaselineSource != string(reconciliation.BaselineCarriedForward) {
		t.Fatalf("unexpected baseline source %q", preview.BaselineSource)
	}
	if preview.TotalAccumulatedPrev != 100 {
		t.Fatalf("expected accumulated prev 100, got %d", preview.TotalAccumulatedPrev)
	}

	var count int64
	db.Model(&models.DailyRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("preview must not persist, found %d records", count)
	}
}

func TestRecordService_AdminRidesAboveRidesIsAcceptedWithWarning(t *testing.T) {
	logs := observeLogs(t)
	svc := NewRecordService(newTestDB(t), nil, "")

	req := closeRequest("2024-05-01", 0)
	req.RidesToday, req.AdminRides = 2, 5
	rec, err := svc.Create(context.Background(), req, "w")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.EffectiveRides != -3 {
		t.Fatalf("expected effective rides -3, got %d", rec.EffectiveRides)
	}
	if logs.FilterMessageSnippet("admin_rides").Len() != 1 {
		t.Fatalf("expected one admin_rides warning, got %d", logs.Len())
	}
}

func TestRecordService_UpdateReconstructsBaseline(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecordService(db, nil, reconciliation.BaselineCashInBox)
	ctx := context.Background()

	if _, err := svc.Create(ctx, closeRequest("2024-05-01", 30000), "w"); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(ctx, closeRequest("2024-05-02", 50000), "w")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	// Edición sin cambios no altera los derivados
	same, err := svc.Update(ctx, second.ID, &models.DailyRecordUpdateRequest{})
	if err != nil {
		t.Fatalf("noop update: %v", err)
	}
	if !same.Difference.Equal(second.Difference) || !same.DailyCashGenerated.Equal(second.DailyCashGenerated) {
		t.Fatalf("noop update changed values: %s/%s", same.Difference, same.DailyCashGenerated)
	}

	// 75000 en caja con base 30000 cuadra exacto
	box := d(75000)
	edited, err := svc.Update(ctx, second.ID, &models.DailyRecordUpdateRequest{CashInBox: &box})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !edited.Difference.IsZero() || edited.Status != string(reconciliation.StatusCuadra) {
		t.Fatalf("expected CUADRA, got %s / %s", edited.Difference, edited.Status)
	}
	if !edited.TotalCounted.Equal(d(395000)) || !edited.DailyCashGenerated.Equal(d(365000)) {
		t.Fatalf("unexpected totals %s / %s", edited.TotalCounted, edited.DailyCashGenerated)
	}

	// Cambiar vueltas recalcula el acumulado de hoy
	edited, err = svc.Update(ctx, second.ID, &models.DailyRecordUpdateRequest{RidesToday: intp(120)})
	if err != nil {
		t.Fatalf("update rides: %v", err)
	}
	if edited.TotalAccumulatedToday != 220 || edited.EffectiveRides != 110 {
		t.Fatalf("unexpected rides after edit: acc %d eff %d", edited.TotalAccumulatedToday, edited.EffectiveRides)
	}
}

func TestRecordService_StaleEditOnlyWarns(t *testing.T) {
	logs := observeLogs(t)
	db := newTestDB(t)
	svc := NewRecordService(db, nil, reconciliation.BaselineCashInBox)
	ctx := context.Background()

	first, err := svc.Create(ctx, closeRequest("2024-05-01", 30000), "w")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(ctx, closeRequest("2024-05-02", 50000), "w")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	box := d(40000)
	if _, err := svc.Update(ctx, first.ID, &models.DailyRecordUpdateRequest{CashInBox: &box}); err != nil {
		t.Fatalf("update first: %v", err)
	}

	edited, err := svc.Update(ctx, second.ID, &models.DailyRecordUpdateRequest{WorkerName: str("Pedro")})
	if err != nil {
		t.Fatalf("update second: %v", err)
	}
	// La base sigue siendo la reconstruida (30000), no la del vecino editado
	if !edited.Difference.Equal(d(-25000)) {
		t.Fatalf("expected difference -25000, got %s", edited.Difference)
	}
	if logs.FilterMessageSnippet("desactualizada").Len() != 1 {
		t.Fatalf("expected one stale baseline warning, got %d", logs.FilterMessageSnippet("desactualizada").Len())
	}
}

func TestRecordService_UpdateMissing(t *testing.T) {
	svc := NewRecordService(newTestDB(t), nil, "")
	_, err := svc.Update(context.Background(), 99, &models.DailyRecordUpdateRequest{})
	if !errors.Is(err, ErrRecordNotFound) || !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Delete(context.Background(), 99); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestRecordService_ConcurrentCreatesChainBaseline(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecordService(db, NewMemoryLocker(), reconciliation.BaselineCashInBox)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Create(ctx, closeRequest("2024-05-01", 30000), "w"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent create: %v", err)
	}

	records, err := svc.All(ctx, "")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	for i, r := range records {
		if r.TotalAccumulatedPrev != i*100 || r.TotalAccumulatedToday != (i+1)*100 {
			t.Fatalf("record %d: accumulated %d -> %d breaks the chain", i, r.TotalAccumulatedPrev, r.TotalAccumulatedToday)
		}
	}
}

func TestRecordService_CalculateRides(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecordService(db, nil, "")
	ctx := context.Background()

	res, err := svc.CalculateRides(ctx, []int{10, 20, 30}, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.TotalToday != 60 || res.RidesToday != 60 || res.TotalAccumulatedPrev != 0 {
		t.Fatalf("unexpected calculation without history: %+v", res)
	}

	if _, err := svc.Create(ctx, closeRequest("2024-05-01", 30000), "w"); err != nil {
		t.Fatalf("create: %v", err)
	}
	res, err = svc.CalculateRides(ctx, []int{50, 60, 10, 0, 0, 0}, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.TotalAccumulatedPrev != 100 || res.TotalToday != 120 || res.RidesToday != 20 {
		t.Fatalf("unexpected calculation from last record: %+v", res)
	}

	res, err = svc.CalculateRides(ctx, []int{50, 60, 10}, intp(150))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if res.RidesToday != -30 {
		t.Fatalf("explicit prev must win: %+v", res)
	}
}

func TestRecordService_ListAndMonthSummary(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecordService(db, nil, "")
	ctx := context.Background()

	for _, date := range []string{"2024-04-30", "2024-05-01", "2024-05-02"} {
		if _, err := svc.Create(ctx, closeRequest(date, 30000), "w"); err != nil {
			t.Fatalf("create %s: %v", date, err)
		}
	}

	may, err := svc.List(ctx, models.RecordFilter{Month: "2024-05"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(may) != 2 || may[0].Date != "2024-05-02" {
		t.Fatalf("expected May records newest first, got %+v", may)
	}

	one, err := svc.List(ctx, models.RecordFilter{Date: "2024-04-30"})
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(one) != 1 {
		t.Fatalf("expected 1 record for date, got %d", len(one))
	}

	page, err := svc.List(ctx, models.RecordFilter{Skip: 1, Limit: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].Date != "2024-05-01" {
		t.Fatalf("unexpected page %+v", page)
	}

	summary, err := svc.MonthSummary(ctx, "2024-05")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.RecordsCount != 2 || summary.TotalRides != 200 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.CuadraCount+summary.ExcedenteCount+summary.FaltanteCount != 2 {
		t.Fatalf("status counts do not add up: %+v", summary)
	}

	last, err := svc.LastRecord(ctx)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last.Date != "2024-05-02" {
		t.Fatalf("expected last record 2024-05-02, got %s", last.Date)
	}
}

func TestRecordService_LastRecordWithoutHistory(t *testing.T) {
	svc := NewRecordService(newTestDB(t), nil, "")
	last, err := svc.LastRecord(context.Background())
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last.ID != 0 || last.TotalAccumulatedToday != 0 {
		t.Fatalf("expected zero record, got %+v", last)
	}
}
