package controllers

import (
	"net/http"
	"time"

	"github.com/NicolasR-dev/dinocars-web/database"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler responde el estado del servicio y de la base de datos
func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := database.Ping(db); err != nil {
			utils.Logger.Error("Health check failed", zap.Error(err))
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "down",
			})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": "up",
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
