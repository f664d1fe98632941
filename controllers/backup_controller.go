package controllers

import (
	"net/http"

	"github.com/NicolasR-dev/dinocars-web/middleware"
	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
)

type BackupController struct {
	backups *services.BackupService
}

func NewBackupController(backups *services.BackupService) *BackupController {
	return &BackupController{backups: backups}
}

func (c *BackupController) List(ctx *gin.Context) {
	backups, err := c.backups.GetAvailableBackups()
	if err != nil {
		utils.HandleServiceError(ctx, err, "list_backups")
		return
	}
	ctx.JSON(http.StatusOK, backups)
}

// Run genera un respaldo en el momento
func (c *BackupController) Run(ctx *gin.Context) {
	info, err := c.backups.RunNow(ctx.Request.Context())
	if err != nil {
		utils.HandleServiceError(ctx, err, "run_backup")
		return
	}
	middleware.AuditLog(ctx, "create", "backup", 0, map[string]interface{}{"filename": info.Filename})
	ctx.JSON(http.StatusCreated, info)
}
