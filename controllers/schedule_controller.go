package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/NicolasR-dev/dinocars-web/calendar"
	"github.com/NicolasR-dev/dinocars-web/middleware"
	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
)

type ScheduleController struct {
	schedules *services.ScheduleService
	now       func() time.Time
}

func NewScheduleController(schedules *services.ScheduleService) *ScheduleController {
	return &ScheduleController{schedules: schedules, now: time.Now}
}

// Create asigna un turno al usuario :id
func (c *ScheduleController) Create(ctx *gin.Context) {
	userID, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req models.ScheduleCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}

	schedule, err := c.schedules.Create(ctx.Request.Context(), userID, &req)
	if err != nil {
		utils.HandleServiceError(ctx, err, "create_schedule")
		return
	}
	middleware.AuditLog(ctx, "create", "schedule", schedule.ID, map[string]interface{}{
		"user_id": userID,
		"date":    schedule.Date,
	})
	ctx.JSON(http.StatusCreated, schedule)
}

func (c *ScheduleController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.schedules.Delete(ctx.Request.Context(), id); err != nil {
		utils.HandleServiceError(ctx, err, "delete_schedule")
		return
	}
	middleware.AuditLog(ctx, "delete", "schedule", id, nil)
	utils.HandleSuccess(ctx, nil, "Turno eliminado")
}

// Month retorna la grilla mensual; sin parámetros usa el mes actual
func (c *ScheduleController) Month(ctx *gin.Context) {
	now := c.now()
	year, month := now.Year(), now.Month()

	if v := ctx.Query("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			utils.HandleValidationError(ctx, fmt.Errorf("year inválido: %q", v))
			return
		}
		year = y
	}
	if v := ctx.Query("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			utils.HandleValidationError(ctx, fmt.Errorf("month inválido: %q", v))
			return
		}
		month = time.Month(m)
	}

	view, err := c.schedules.Month(ctx.Request.Context(), year, month)
	if err != nil {
		utils.HandleServiceError(ctx, err, "month_schedule")
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// Week retorna la semana (lunes a domingo) que contiene ?date=
func (c *ScheduleController) Week(ctx *gin.Context) {
	date := c.now()
	if v := ctx.Query("date"); v != "" {
		d, err := calendar.ParseDate(v)
		if err != nil {
			utils.HandleValidationError(ctx, fmt.Errorf("date inválida: %q", v))
			return
		}
		date = d
	}

	view, err := c.schedules.Week(ctx.Request.Context(), date)
	if err != nil {
		utils.HandleServiceError(ctx, err, "week_schedule")
		return
	}
	ctx.JSON(http.StatusOK, view)
}
