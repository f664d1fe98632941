package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/NicolasR-dev/dinocars-web/middleware"
	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"
	"github.com/NicolasR-dev/dinocars-web/validators"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type RecordController struct {
	records *services.RecordService
	excel   *services.ExcelService
}

func NewRecordController(records *services.RecordService, excel *services.ExcelService) *RecordController {
	return &RecordController{records: records, excel: excel}
}

// CalculateRides es "Calcular Vueltas"
func (c *RecordController) CalculateRides(ctx *gin.Context) {
	var req models.RidesCalculationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}
	if err := validators.ValidateRidesCalculation(&req); err != nil {
		utils.HandleServiceError(ctx, err, "calculate_rides")
		return
	}

	res, err := c.records.CalculateRides(ctx.Request.Context(), req.DinoCounts, req.TotalAccumulatedPrev)
	if err != nil {
		utils.HandleServiceError(ctx, err, "calculate_rides")
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (c *RecordController) LastRecord(ctx *gin.Context) {
	rec, err := c.records.LastRecord(ctx.Request.Context())
	if err != nil {
		utils.HandleServiceError(ctx, err, "last_record")
		return
	}
	ctx.JSON(http.StatusOK, rec)
}

func (c *RecordController) bindCreate(ctx *gin.Context) (*models.DailyRecordCreateRequest, bool) {
	var req models.DailyRecordCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationError(ctx, err)
		return nil, false
	}
	if err := validators.ValidateRecordCreate(&req); err != nil {
		utils.HandleServiceError(ctx, err, "validate_record")
		return nil, false
	}
	return &req, true
}

// Preview es "Calcular Cierre": calcula sin guardar
func (c *RecordController) Preview(ctx *gin.Context) {
	req, ok := c.bindCreate(ctx)
	if !ok {
		return
	}
	preview, err := c.records.Preview(ctx.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(ctx, err, "preview_record")
		return
	}
	ctx.JSON(http.StatusOK, preview)
}

func (c *RecordController) Create(ctx *gin.Context) {
	req, ok := c.bindCreate(ctx)
	if !ok {
		return
	}
	rec, err := c.records.Create(ctx.Request.Context(), req, ctx.GetString(middleware.ContextUsername))
	if err != nil {
		utils.HandleServiceError(ctx, err, "create_record")
		return
	}
	middleware.AuditLog(ctx, "create", "daily_record", rec.ID, map[string]interface{}{
		"date":   rec.Date,
		"status": rec.Status,
	})
	ctx.JSON(http.StatusCreated, rec)
}

func (c *RecordController) List(ctx *gin.Context) {
	var filter models.RecordFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}
	records, err := c.records.List(ctx.Request.Context(), filter)
	if err != nil {
		utils.HandleServiceError(ctx, err, "list_records")
		return
	}
	ctx.JSON(http.StatusOK, records)
}

// Summary es el total mensual de la vista de historial
func (c *RecordController) Summary(ctx *gin.Context) {
	var q struct {
		Month string `form:"month" binding:"required,yearmonth"`
	}
	if err := ctx.ShouldBindQuery(&q); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}
	summary, err := c.records.MonthSummary(ctx.Request.Context(), q.Month)
	if err != nil {
		utils.HandleServiceError(ctx, err, "month_summary")
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

func (c *RecordController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	rec, err := c.records.Get(ctx.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(ctx, err, "get_record")
		return
	}
	ctx.JSON(http.StatusOK, rec)
}

func (c *RecordController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req models.DailyRecordUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}
	if err := validators.ValidateRecordUpdate(&req); err != nil {
		utils.HandleServiceError(ctx, err, "validate_record")
		return
	}

	rec, err := c.records.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		utils.HandleServiceError(ctx, err, "update_record")
		return
	}
	middleware.AuditLog(ctx, "update", "daily_record", rec.ID, map[string]interface{}{
		"status":     rec.Status,
		"difference": rec.Difference.String(),
	})
	ctx.JSON(http.StatusOK, rec)
}

func (c *RecordController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.records.Delete(ctx.Request.Context(), id); err != nil {
		utils.HandleServiceError(ctx, err, "delete_record")
		return
	}
	middleware.AuditLog(ctx, "delete", "daily_record", id, nil)
	utils.HandleSuccess(ctx, nil, "Registro eliminado")
}

// Export descarga la planilla (?month=YYYY-MM o todo el historial)
func (c *RecordController) Export(ctx *gin.Context) {
	var q struct {
		Month string `form:"month" binding:"omitempty,yearmonth"`
	}
	if err := ctx.ShouldBindQuery(&q); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}

	var buf bytes.Buffer
	if err := c.excel.Export(ctx.Request.Context(), q.Month, &buf); err != nil {
		utils.HandleServiceError(ctx, err, "export_records")
		return
	}

	name := "registros.xlsx"
	if q.Month != "" {
		name = fmt.Sprintf("registros_%s.xlsx", q.Month)
	}
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Import carga una planilla histórica (multipart, campo "file")
func (c *RecordController) Import(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		utils.HandleValidationError(ctx, errors.New("falta el archivo xlsx en el campo file"))
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}
	defer file.Close()

	result, err := c.excel.Import(ctx.Request.Context(), file, ctx.GetString(middleware.ContextUsername))
	if err != nil {
		utils.HandleServiceError(ctx, err, "import_records")
		return
	}
	middleware.AuditLog(ctx, "import", "daily_record", 0, map[string]interface{}{
		"filename": header.Filename,
		"imported": result.Imported,
		"skipped":  len(result.Skipped),
	})
	ctx.JSON(http.StatusOK, result)
}
