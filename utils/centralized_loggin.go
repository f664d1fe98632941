package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID guarda el id de la petición en el contexto
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID retorna el id de la petición o "" si no hay
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggerFrom retorna el logger global con el request_id del contexto
func LoggerFrom(ctx context.Context) *zap.Logger {
	if id := RequestID(ctx); id != "" {
		return Logger.With(zap.String("request_id", id))
	}
	return Logger
}

// LogRequest registra una petición HTTP; el nivel depende del status
func LogRequest(ctx context.Context, method, path, ip string, statusCode int, duration time.Duration, userID uint) {
	log := LoggerFrom(ctx).Info
	if statusCode >= 400 {
		log = LoggerFrom(ctx).Warn
	}
	if statusCode >= 500 {
		log = LoggerFrom(ctx).Error
	}

	log("HTTP Request",
		zap.Uint("user_id", userID),
		zap.String("ip", ip),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", statusCode),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
}

// LogBusinessEvent registra eventos de negocio importantes
//
// Eventos: record_created, record_updated, record_deleted, records_imported,
// user_created, user_deleted, schedule_created, backup_completed.
func LogBusinessEvent(eventType string, userID uint, details map[string]interface{}) {
	Logger.Info("Business Event",
		zap.String("event_type", eventType),
		zap.Uint("user_id", userID),
		zap.Any("details", details),
	)
}

// LogSecurityEventAdvanced registra eventos de seguridad con severidad
// ("low", "medium", "high", "critical")
func LogSecurityEventAdvanced(eventType string, severity string, details map[string]interface{}) {
	sanitized := SanitizeForLog(details)

	if severity == "critical" {
		Logger.Error("🚨 CRITICAL SECURITY EVENT",
			zap.String("event_type", eventType),
			zap.Any("details", sanitized),
		)
		return
	}

	Logger.Warn("SECURITY_EVENT",
		zap.String("event_type", eventType),
		zap.String("severity", severity),
		zap.Any("details", sanitized),
	)
}
