package controllers

import (
	"net/http"

	"github.com/NicolasR-dev/dinocars-web/middleware"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
)

// Me devuelve el usuario autenticado y los permisos de su rol
func (c *AuthController) Me(ctx *gin.Context) {
	user, err := c.authService.GetUserByID(ctx.Request.Context(), ctx.GetUint(middleware.ContextUserID))
	if err != nil {
		utils.HandleServiceError(ctx, err, "me")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"user":        user,
		"permissions": middleware.GetRolePermissions(user.Role),
	})
}
