package controllers

import (
	"net/http"

	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	stats *services.StatsService
}

func NewStatsController(stats *services.StatsService) *StatsController {
	return &StatsController{stats: stats}
}

// DashboardStats maneja GET /api/admin/dashboard-stats con filtros opcionales
func (c *StatsController) DashboardStats(ctx *gin.Context) {
	var filter models.StatsFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}

	stats, err := c.stats.Dashboard(ctx.Request.Context(), filter)
	if err != nil {
		utils.HandleServiceError(ctx, err, "dashboard_stats")
		return
	}
	ctx.JSON(http.StatusOK, stats)
}
