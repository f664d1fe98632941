package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/reconciliation"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	createLockKey   = "records:create"
	createLockTTL   = 30 * time.Second
	defaultPageSize = 100
	maxPageSize     = 500
)

type RecordService struct {
	db     *gorm.DB
	locker Locker
	policy reconciliation.BaselinePolicy
}

func NewRecordService(db *gorm.DB, locker Locker, policy reconciliation.BaselinePolicy) *RecordService {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if policy == "" {
		policy = reconciliation.BaselineCashInBox
	}
	return &RecordService{db: db, locker: locker, policy: policy}
}

// Policy retorna la política de base de efectivo en uso
func (s *RecordService) Policy() reconciliation.BaselinePolicy {
	return s.policy
}

// LastRecord retorna el registro más reciente. Sin historial retorna un
// registro en cero (id 0) para que el cliente arranque los contadores.
func (s *RecordService) LastRecord(ctx context.Context) (*models.DailyRecord, error) {
	rec, err := lastRecord(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &models.DailyRecord{CreatedAt: time.Now().UTC()}, nil
	}
	return rec, nil
}

// lastRecord busca el último registro por id; nil si no hay ninguno
func lastRecord(tx *gorm.DB) (*models.DailyRecord, error) {
	var rec models.DailyRecord
	err := tx.Order("id DESC").Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("buscando último registro: %w", err)
	}
	return &rec, nil
}

// recordBefore busca el registro inmediatamente anterior a id
func recordBefore(tx *gorm.DB, id uint) (*models.DailyRecord, error) {
	var rec models.DailyRecord
	err := tx.Where("id < ?", id).Order("id DESC").Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("buscando registro anterior: %w", err)
	}
	return &rec, nil
}

func priorClose(rec *models.DailyRecord) *reconciliation.PriorClose {
	if rec == nil {
		return nil
	}
	return &reconciliation.PriorClose{
		CashInBox:          rec.CashInBox,
		TotalCounted:       rec.TotalCounted,
		DailyCashGenerated: rec.DailyCashGenerated,
	}
}

// CalculateRides es "Calcular Vueltas". Si no se indica el acumulado anterior
// se toma el total_accumulated_today del último registro.
func (s *RecordService) CalculateRides(ctx context.Context, counts []int, accumulatedPrev *int) (*models.RidesCalculationResponse, error) {
	prev := 0
	if accumulatedPrev != nil {
		prev = *accumulatedPrev
	} else {
		last, err := lastRecord(s.db.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if last != nil {
			prev = last.TotalAccumulatedToday
		}
	}

	total, rides := reconciliation.CountRides(counts, prev)
	return &models.RidesCalculationResponse{
		TotalToday:           total,
		RidesToday:           rides,
		TotalAccumulatedPrev: prev,
	}, nil
}

func inputFromCreate(req *models.DailyRecordCreateRequest, baseline decimal.Decimal) reconciliation.Input {
	return reconciliation.Input{
		RidesToday:          req.RidesToday,
		AdminRides:          req.AdminRides,
		ToysSoldTotal:       req.ToysSoldTotal,
		CashWithdrawn:       req.CashWithdrawn,
		CashInBox:           req.CashInBox,
		CardPayments:        req.CardPayments,
		PreviousClosingCash: baseline,
	}
}

// Preview calcula el cierre sin guardarlo ("Calcular Cierre")
func (s *RecordService) Preview(ctx context.Context, req *models.DailyRecordCreateRequest) (*models.RecordPreview, error) {
	prior, err := lastRecord(s.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	baseline := s.policy.PreviousClosingCash(priorClose(prior))
	res := reconciliation.Compute(inputFromCreate(req, baseline))

	accPrev := 0
	if prior != nil {
		accPrev = prior.TotalAccumulatedToday
	}

	return &models.RecordPreview{
		Date:                 req.Date,
		TotalAccumulatedPrev: accPrev,
		EffectiveRides:       res.EffectiveRides,
		ExpectedIncome:       res.ExpectedIncome,
		TotalCounted:         res.TotalCounted,
		DailyCashGenerated:   res.DailyCashGenerated,
		Difference:           res.Difference,
		Status:               string(res.Status),
		PreviousClosingCash:  res.PreviousClosingCash,
		BaselineSource:       string(s.policy),
	}, nil
}

// Create es el alta de un cierre. La búsqueda del último registro y el
// insert ocurren bajo el mismo lock para que dos cierres simultáneos no
// usen la misma base.
func (s *RecordService) Create(ctx context.Context, req *models.DailyRecordCreateRequest, submittedBy string) (*models.DailyRecord, error) {
	unlock, err := s.locker.Lock(ctx, createLockKey, createLockTTL)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if req.AdminRides > req.RidesToday {
		utils.LoggerFrom(ctx).Warn("admin_rides mayor que rides_today; el ingreso esperado queda negativo",
			zap.String("date", req.Date),
			zap.Int("rides_today", req.RidesToday),
			zap.Int("admin_rides", req.AdminRides),
		)
	}

	var record models.DailyRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prior, err := lastRecord(tx)
		if err != nil {
			return err
		}

		baseline := s.policy.PreviousClosingCash(priorClose(prior))
		res := reconciliation.Compute(inputFromCreate(req, baseline))

		accPrev := 0
		if prior != nil {
			accPrev = prior.TotalAccumulatedToday
		}

		record = models.DailyRecord{
			Date:                  req.Date,
			WorkerName:            req.WorkerName,
			SubmittedBy:           submittedBy,
			TotalAccumulatedPrev:  accPrev,
			TotalAccumulatedToday: accPrev + req.RidesToday,
			RidesToday:            req.RidesToday,
			AdminRides:            req.AdminRides,
			CashWithdrawn:         req.CashWithdrawn,
			CashInBox:             req.CashInBox,
			CardPayments:          req.CardPayments,
			ToysSoldTotal:         req.ToysSoldTotal,
			ToysSoldDetails:       req.ToysSoldDetails,
		}
		applyResult(&record, res)

		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("guardando registro: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogBusinessEvent("record_created", 0, map[string]interface{}{
		"record_id":    record.ID,
		"date":         record.Date,
		"status":       record.Status,
		"difference":   record.Difference.String(),
		"submitted_by": submittedBy,
	})
	return &record, nil
}

func applyResult(rec *models.DailyRecord, res reconciliation.Result) {
	rec.EffectiveRides = res.EffectiveRides
	rec.ExpectedIncome = res.ExpectedIncome
	rec.TotalCounted = res.TotalCounted
	rec.DailyCashGenerated = res.DailyCashGenerated
	rec.Difference = res.Difference
	rec.Status = string(res.Status)
}

// Update es la edición de un cierre. La base de efectivo se reconstruye
// desde los valores del propio registro antes de editarlo; nunca se consulta
// el registro vecino para calcularla.
func (s *RecordService) Update(ctx context.Context, id uint, req *models.DailyRecordUpdateRequest) (*models.DailyRecord, error) {
	var (
		record   models.DailyRecord
		baseline decimal.Decimal
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		snapshot := reconciliation.Snapshot{
			TotalCounted:       record.TotalCounted,
			DailyCashGenerated: record.DailyCashGenerated,
		}

		applyEdits(&record, req)

		res := reconciliation.Recompute(snapshot, reconciliation.Input{
			RidesToday:    record.RidesToday,
			AdminRides:    record.AdminRides,
			ToysSoldTotal: record.ToysSoldTotal,
			CashWithdrawn: record.CashWithdrawn,
			CashInBox:     record.CashInBox,
			CardPayments:  record.CardPayments,
		})
		applyResult(&record, res)
		baseline = res.PreviousClosingCash

		if err := tx.Save(&record).Error; err != nil {
			return fmt.Errorf("actualizando registro: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.warnIfStale(ctx, &record, baseline)

	utils.LogBusinessEvent("record_updated", 0, map[string]interface{}{
		"record_id":  record.ID,
		"date":       record.Date,
		"status":     record.Status,
		"difference": record.Difference.String(),
	})
	return &record, nil
}

func applyEdits(rec *models.DailyRecord, req *models.DailyRecordUpdateRequest) {
	if req.Date != nil {
		rec.Date = *req.Date
	}
	if req.WorkerName != nil {
		rec.WorkerName = *req.WorkerName
	}
	if req.TotalAccumulatedPrev != nil {
		rec.TotalAccumulatedPrev = *req.TotalAccumulatedPrev
	}
	if req.RidesToday != nil {
		rec.RidesToday = *req.RidesToday
	}
	if req.AdminRides != nil {
		rec.AdminRides = *req.AdminRides
	}
	switch {
	case req.TotalAccumulatedToday != nil:
		rec.TotalAccumulatedToday = *req.TotalAccumulatedToday
	case req.RidesToday != nil || req.TotalAccumulatedPrev != nil:
		rec.TotalAccumulatedToday = rec.TotalAccumulatedPrev + rec.RidesToday
	}
	if req.CashWithdrawn != nil {
		rec.CashWithdrawn = *req.CashWithdrawn
	}
	if req.CashInBox != nil {
		rec.CashInBox = *req.CashInBox
	}
	if req.CardPayments != nil {
		rec.CardPayments = *req.CardPayments
	}
	if req.ToysSoldTotal != nil {
		rec.ToysSoldTotal = *req.ToysSoldTotal
	}
	if req.ToysSoldDetails != nil {
		rec.ToysSoldDetails = *req.ToysSoldDetails
	}
}

// warnIfStale compara la base reconstruida con la que daría hoy el registro
// anterior. Solo deja un warning: la edición ya se guardó.
func (s *RecordService) warnIfStale(ctx context.Context, rec *models.DailyRecord, reconstructed decimal.Decimal) {
	prior, err := recordBefore(s.db.WithContext(ctx), rec.ID)
	if err != nil {
		utils.LoggerFrom(ctx).Warn("No se pudo verificar la base de efectivo", zap.Error(err))
		return
	}
	if prior == nil {
		return
	}

	fresh := s.policy.PreviousClosingCash(priorClose(prior))
	if !fresh.Equal(reconstructed) {
		utils.LoggerFrom(ctx).Warn("Base de efectivo desactualizada en edición",
			zap.Uint("record_id", rec.ID),
			zap.Uint("prior_record_id", prior.ID),
			zap.String("reconstructed", reconstructed.String()),
			zap.String("fresh_lookup", fresh.String()),
			zap.String("policy", string(s.policy)),
		)
	}
}

// Get busca un registro por id
func (s *RecordService) Get(ctx context.Context, id uint) (*models.DailyRecord, error) {
	var rec models.DailyRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete elimina un registro
func (s *RecordService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.DailyRecord{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	utils.LogBusinessEvent("record_deleted", 0, map[string]interface{}{"record_id": id})
	return nil
}

// List filtra por fecha exacta o por mes (YYYY-MM), de la fecha más reciente a la más antigua
func (s *RecordService) List(ctx context.Context, f models.RecordFilter) ([]models.DailyRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	q := s.db.WithContext(ctx).Model(&models.DailyRecord{})
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}
	if f.Month != "" {
		q = q.Where("date LIKE ?", f.Month+"-%")
	}

	records := []models.DailyRecord{}
	err := q.Order("date DESC").Order("id DESC").
		Offset(f.Skip).Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MonthSummary suma el efectivo generado del mes y cuenta los estados
func (s *RecordService) MonthSummary(ctx context.Context, month string) (*models.MonthSummary, error) {
	var records []models.DailyRecord
	err := s.db.WithContext(ctx).
		Where("date LIKE ?", month+"-%").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	summary := &models.MonthSummary{Month: month, TotalCashGenerated: decimal.Zero}
	for _, r := range records {
		summary.RecordsCount++
		summary.TotalCashGenerated = summary.TotalCashGenerated.Add(r.DailyCashGenerated)
		summary.TotalRides += r.RidesToday
		switch reconciliation.Status(r.Status) {
		case reconciliation.StatusCuadra:
			summary.CuadraCount++
		case reconciliation.StatusExcedente:
			summary.ExcedenteCount++
		case reconciliation.StatusFaltante:
			summary.FaltanteCount++
		}
	}
	return summary, nil
}

// All retorna todos los registros (o los de un mes) en orden cronológico
func (s *RecordService) All(ctx context.Context, month string) ([]models.DailyRecord, error) {
	q := s.db.WithContext(ctx)
	if month != "" {
		q = q.Where("date LIKE ?", month+"-%")
	}
	var records []models.DailyRecord
	if err := q.Order("date ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
