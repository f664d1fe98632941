package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Tipos de error de dominio. Los servicios envuelven estos sentinels para
// que HandleServiceError elija el status HTTP sin conocer cada error.
var (
	ErrNotFound     = errors.New("no encontrado")
	ErrConflict     = errors.New("conflicto")
	ErrInvalidInput = errors.New("datos inválidos")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acción no permitida")
)

// HandleServiceError traduce un error de servicio a la respuesta JSON uniforme
func HandleServiceError(ctx *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond(ctx, http.StatusNotFound, "NOT_FOUND", err.Error(), err, operation)
	case errors.Is(err, ErrConflict):
		respond(ctx, http.StatusConflict, "CONFLICT", err.Error(), err, operation)
	case errors.Is(err, ErrInvalidInput):
		respond(ctx, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err, operation)
	case errors.Is(err, ErrUnauthorized):
		respond(ctx, http.StatusUnauthorized, "AUTH_ERROR", err.Error(), err, operation)
	case errors.Is(err, ErrForbidden):
		respond(ctx, http.StatusForbidden, "FORBIDDEN", err.Error(), err, operation)
	default:
		HandleDBError(ctx, err, operation)
	}
}

func respond(ctx *gin.Context, status int, code, message string, err error, operation string) {
	LoggerFrom(ctx.Request.Context()).Warn("Request rejected",
		zap.String("operation", operation),
		zap.String("code", code),
		zap.Error(err),
		zap.String("ip", ctx.ClientIP()),
		zap.String("path", ctx.Request.URL.Path),
	)

	ctx.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}

// HandleDBError maneja errores de base de datos de forma segura
// NO expone detalles internos al cliente
func HandleDBError(ctx *gin.Context, err error, operation string) {
	LoggerFrom(ctx.Request.Context()).Error("Database error",
		zap.String("operation", operation),
		zap.Error(err),
		zap.String("ip", ctx.ClientIP()),
		zap.String("path", ctx.Request.URL.Path),
	)

	ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "Error interno del servidor",
		"code":  "DATABASE_ERROR",
	})
}

// HandleValidationError maneja errores de validación
func HandleValidationError(ctx *gin.Context, err error) {
	Logger.Warn("Validation error",
		zap.Error(err),
		zap.String("ip", ctx.ClientIP()),
		zap.String("path", ctx.Request.URL.Path),
	)

	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": err.Error(),
		"code":  "VALIDATION_ERROR",
	})
}

// HandleAuthError maneja errores de autenticación
func HandleAuthError(ctx *gin.Context, message string) {
	Logger.Warn("Authentication error",
		zap.String("message", message),
		zap.String("ip", ctx.ClientIP()),
		zap.String("path", ctx.Request.URL.Path),
	)

	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  "AUTH_ERROR",
	})
}

// HandleNotFoundError maneja errores de recurso no encontrado
func HandleNotFoundError(ctx *gin.Context, resource string) {
	ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{
		"error": resource + " no encontrado",
		"code":  "NOT_FOUND",
	})
}

// HandleForbiddenError maneja errores de acceso denegado
func HandleForbiddenError(ctx *gin.Context, message string) {
	Logger.Warn("Access forbidden",
		zap.String("message", message),
		zap.String("ip", ctx.ClientIP()),
		zap.String("path", ctx.Request.URL.Path),
	)

	ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error": message,
		"code":  "FORBIDDEN",
	})
}

// HandleSuccess maneja respuestas exitosas de forma consistente
func HandleSuccess(ctx *gin.Context, data interface{}, message string) {
	response := gin.H{
		"success": true,
		"message": message,
	}

	if data != nil {
		response["data"] = data
	}

	ctx.JSON(http.StatusOK, response)
}
