package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/NicolasR-dev/dinocars-web/services"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
)

// Claves del contexto de gin
const (
	ContextUserID      = "user_id"
	ContextUsername    = "username"
	ContextRole        = "role"
	ContextClaims      = "claims"
	ContextPermissions = "permissions"
)

// TokenValidator lo implementa services.AuthService
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*services.Claims, error)
}

func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.HandleAuthError(c, "Token de autorización requerido")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
			utils.HandleAuthError(c, "Formato de autorización inválido")
			return
		}

		claims, err := auth.ValidateToken(c.Request.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			if errors.Is(err, utils.ErrUnauthorized) {
				utils.LogSecurityEvent("invalid_token", map[string]interface{}{
					"ip":     c.ClientIP(),
					"path":   c.Request.URL.Path,
					"reason": err.Error(),
				})
			}
			utils.HandleServiceError(c, err, "validate_token")
			return
		}

		// Guardar claims en el contexto
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// CurrentClaims retorna los claims que dejó AuthMiddleware
func CurrentClaims(c *gin.Context) (*services.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.Claims)
	return claims, ok
}
