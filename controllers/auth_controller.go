package controllers

import (
	"net/http"

	"github.com/NicolasR-dev/dinocars-web/middleware"
	"github.com/NicolasR-dev/dinocars-web/models"
	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Login acepta formulario (OAuth2 password flow) o JSON
func (c *AuthController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		utils.HandleValidationError(ctx, err)
		return
	}

	token, user, err := c.authService.Login(ctx.Request.Context(), req.Username, req.Password)
	utils.LogAuthAttempt(req.Username, err == nil, ctx.ClientIP())
	if err != nil {
		utils.HandleServiceError(ctx, err, "login")
		return
	}

	utils.LogBusinessEvent("login", user.ID, map[string]interface{}{"role": user.Role})

	ctx.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Logout revoca el token presentado
func (c *AuthController) Logout(ctx *gin.Context) {
	claims, ok := middleware.CurrentClaims(ctx)
	if !ok {
		utils.HandleAuthError(ctx, "Usuario no autenticado")
		return
	}
	if err := c.authService.Logout(ctx.Request.Context(), claims); err != nil {
		utils.HandleServiceError(ctx, err, "logout")
		return
	}
	utils.HandleSuccess(ctx, nil, "Logout exitoso")
}
