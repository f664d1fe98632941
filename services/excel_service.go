package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NicolasR-dev/dinocars-web/calendar"
	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/reconciliation"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const recordsSheet = "Ventas"

// Encabezados de la planilla histórica
const (
	colFecha            = "Fecha"
	colAcumulado        = "Total acumulado dinosaurios"
	colVueltas          = "Vueltas"
	colVueltasAdmin     = "Vueltas administrativas"
	colVueltasEfectivas = "Vueltas efectivas"
	colIngresos         = "Ingresos esperados"
	colRetirado         = "Efectivo retirado"
	colEnCaja           = "Efectivo en caja"
	colTarjeta          = "Pagos en tarjeta"
	colContabilizado    = "Total contabilizado"
	colEstado           = "Estado caja"
	colDiferencia       = "Diferencia"
	colGenerado         = "Efectivo diario generado"
	colJuguetes         = "Juguetes vendidos"
	colDetalleJuguetes  = "Detalle juguetes"
	colTrabajador       = "Trabajador"
)

var exportHeaders = []string{
	colFecha, colAcumulado, colVueltas, colVueltasAdmin, colVueltasEfectivas,
	colIngresos, colRetirado, colEnCaja, colTarjeta, colContabilizado,
	colEstado, colDiferencia, colGenerado, colJuguetes, colDetalleJuguetes, colTrabajador,
}

type ExcelService struct {
	db *gorm.DB
}

func NewExcelService(db *gorm.DB) *ExcelService {
	return &ExcelService{db: db}
}

// BuildWorkbook arma la planilla con un registro por fila
func BuildWorkbook(records []models.DailyRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", recordsSheet); err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(recordsSheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, rec := range records {
		row := []interface{}{
			rec.Date,
			rec.TotalAccumulatedToday,
			rec.RidesToday,
			rec.AdminRides,
			rec.EffectiveRides,
			rec.ExpectedIncome.InexactFloat64(),
			rec.CashWithdrawn.InexactFloat64(),
			rec.CashInBox.InexactFloat64(),
			rec.CardPayments.InexactFloat64(),
			rec.TotalCounted.InexactFloat64(),
			rec.Status,
			rec.Difference.InexactFloat64(),
			rec.DailyCashGenerated.InexactFloat64(),
			rec.ToysSoldTotal.InexactFloat64(),
			rec.ToysSoldDetails,
			rec.WorkerName,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(recordsSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Export escribe la planilla (de un mes o completa) en w
func (s *ExcelService) Export(ctx context.Context, month string, w io.Writer) error {
	q := s.db.WithContext(ctx)
	if month != "" {
		q = q.Where("date LIKE ?", month+"-%")
	}
	var records []models.DailyRecord
	if err := q.Order("date ASC").Order("id ASC").Find(&records).Error; err != nil {
		return err
	}

	f, err := BuildWorkbook(records)
	if err != nil {
		return fmt.Errorf("armando planilla: %w", err)
	}
	defer f.Close()

	return f.Write(w)
}

type importRow struct {
	line   int
	date   string
	values map[string]string
}

// Import carga una planilla histórica. Las fechas ya registradas se saltan
// (su contador acumulado sigue valiendo para la fila siguiente) y los
// valores de la planilla se guardan tal cual, sin recalcular.
func (s *ExcelService) Import(ctx context.Context, r io.Reader, actor string) (*models.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: archivo xlsx inválido: %v", utils.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: la planilla no tiene hojas", utils.ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: la planilla está vacía", utils.ErrInvalidInput)
	}

	header := make(map[int]string)
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	hasDate := false
	for _, h := range header {
		if h == colFecha {
			hasDate = true
		}
	}
	if !hasDate {
		return nil, fmt.Errorf("%w: falta la columna %q", utils.ErrInvalidInput, colFecha)
	}

	result := &models.ImportResult{Skipped: []string{}, Errors: []string{}}

	var parsed []importRow
	for n, row := range rows[1:] {
		values := make(map[string]string)
		for i, v := range row {
			if name, ok := header[i]; ok {
				values[name] = strings.TrimSpace(v)
			}
		}
		date, err := parseSheetDate(values[colFecha])
		if err != nil {
			if values[colFecha] != "" {
				result.Errors = append(result.Errors, fmt.Sprintf("fila %d: %v", n+2, err))
			}
			continue
		}
		parsed = append(parsed, importRow{line: n + 2, date: date, values: values})
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].date < parsed[j].date })

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(parsed) == 0 {
			return nil
		}

		// El contador acumulado se encadena desde el último cierre guardado
		// antes de la primera fecha importada; sin historial se infiere.
		var (
			prevAccumulated int
			prevKnown       bool
			before          models.DailyRecord
		)
		err := tx.Where("date < ?", parsed[0].date).
			Order("date DESC").Order("id DESC").
			Limit(1).Find(&before).Error
		if err != nil {
			return err
		}
		if before.ID != 0 {
			prevAccumulated, prevKnown = before.TotalAccumulatedToday, true
		}

		for _, row := range parsed {
			var existing models.DailyRecord
			err := tx.Where("date = ?", row.date).Order("id DESC").Limit(1).Find(&existing).Error
			if err != nil {
				return err
			}
			if existing.ID != 0 {
				result.Skipped = append(result.Skipped, row.date)
				prevAccumulated, prevKnown = existing.TotalAccumulatedToday, true
				continue
			}

			rec := recordFromRow(row, actor)
			if !prevKnown {
				prevAccumulated = rec.TotalAccumulatedToday - rec.RidesToday
			}
			rec.TotalAccumulatedPrev = prevAccumulated

			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("fila %d: %w", row.line, err)
			}
			prevAccumulated, prevKnown = rec.TotalAccumulatedToday, true
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogBusinessEvent("records_imported", 0, map[string]interface{}{
		"imported": result.Imported,
		"skipped":  len(result.Skipped),
		"errors":   len(result.Errors),
		"actor":    actor,
	})
	return result, nil
}

func recordFromRow(row importRow, actor string) models.DailyRecord {
	v := row.values
	difference := sheetDecimal(v[colDiferencia])

	status, err := reconciliation.ParseStatus(strings.ToUpper(v[colEstado]))
	if err != nil {
		status = reconciliation.Classify(difference)
	}

	details := v[colDetalleJuguetes]
	if details == "" {
		details = "Importado desde Excel"
	}
	worker := v[colTrabajador]
	if worker == "" {
		worker = "Importado"
	}

	return models.DailyRecord{
		Date:                  row.date,
		TotalAccumulatedToday: sheetInt(v[colAcumulado]),
		RidesToday:            sheetInt(v[colVueltas]),
		AdminRides:            sheetInt(v[colVueltasAdmin]),
		EffectiveRides:        sheetInt(v[colVueltasEfectivas]),
		ExpectedIncome:        sheetDecimal(v[colIngresos]),
		CashWithdrawn:         sheetDecimal(v[colRetirado]),
		CashInBox:             sheetDecimal(v[colEnCaja]),
		CardPayments:          sheetDecimal(v[colTarjeta]),
		TotalCounted:          sheetDecimal(v[colContabilizado]),
		Status:                string(status),
		Difference:            difference,
		DailyCashGenerated:    sheetDecimal(v[colGenerado]),
		ToysSoldTotal:         sheetDecimal(v[colJuguetes]),
		ToysSoldDetails:       details,
		WorkerName:            worker,
		SubmittedBy:           actor,
		CreatedAt:             time.Now().UTC(),
	}
}

// parseSheetDate acepta número de serie de Excel o fechas como texto
func parseSheetDate(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("fecha vacía")
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return "", err
		}
		return calendar.FormatDate(t), nil
	}
	for _, layout := range []string{calendar.DateLayout, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z", "02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return calendar.FormatDate(t), nil
		}
	}
	return "", fmt.Errorf("fecha no reconocida %q", raw)
}

// sheetDecimal convierte una celda de dinero a 2 decimales, como la guarda
// la columna; lo que no es número vale 0
func sheetDecimal(raw string) decimal.Decimal {
	return sheetNumber(raw).Round(2)
}

func sheetInt(raw string) int {
	return int(sheetNumber(raw).IntPart())
}

func sheetNumber(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
