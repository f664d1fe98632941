package controllers

import (
	"fmt"
	"strconv"

	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
)

// parseID lee un id numérico de la ruta; responde 400 si no lo es
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.HandleValidationError(ctx, fmt.Errorf("%s inválido", name))
		return 0, false
	}
	return uint(id), true
}
