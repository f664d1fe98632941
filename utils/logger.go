package utils

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger es un no-op hasta que se llama InitLogger (las pruebas no lo inicializan)
var Logger = zap.NewNop()

// InitLogger inicializa el logger según el entorno
func InitLogger(env, level, logFile string) error {
	var config zap.Config

	if env == "production" {
		// JSON estructurado en producción
		config = zap.NewProductionConfig()
		config.Encoding = "json"
		config.EncoderConfig.MessageKey = "message"
		config.EncoderConfig.LevelKey = "level"
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.CallerKey = "caller"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		// Formato legible en desarrollo
		config = zap.NewDevelopmentConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	config.InitialFields = map[string]interface{}{
		"service":     "dinocars-api",
		"environment": env,
	}

	if logFile != "" {
		config.OutputPaths = []string{"stdout", logFile}
		config.ErrorOutputPaths = []string{"stderr", logFile}
	}

	built, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}

	Logger = built
	zap.ReplaceGlobals(Logger)

	return nil
}

// Close cierra el logger de forma segura
func Close() error {
	if Logger != nil {
		return Logger.Sync()
	}
	return nil
}

// SanitizeForLog sanitiza datos sensibles antes de loggearlos
func SanitizeForLog(data map[string]interface{}) map[string]interface{} {
	sensitiveKeys := []string{
		"password",
		"password_hash",
		"token",
		"secret",
		"authorization",
		"jwt",
		"cookie",
		"api_key",
		"access_token",
		"credentials",
	}

	sanitized := make(map[string]interface{}, len(data))
	for k, v := range data {
		if containsCaseInsensitive(sensitiveKeys, k) {
			sanitized[k] = "***REDACTED***"
			continue
		}
		if str, ok := v.(string); ok {
			sanitized[k] = sanitizeString(str)
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}

func containsCaseInsensitive(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}

// sanitizeString redacta strings que parecen tokens (largos y alfanuméricos)
func sanitizeString(s string) string {
	if len(s) > 50 && isAlphanumeric(s) {
		return "***REDACTED_TOKEN***"
	}
	return s
}

func isAlphanumeric(s string) bool {
	alphanumCount := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '-' || r == '_' {
			alphanumCount++
		}
	}
	return float64(alphanumCount)/float64(len(s)) > 0.9
}

// LogSecurityEvent registra eventos de seguridad importantes
func LogSecurityEvent(eventType string, details map[string]interface{}) {
	Logger.Warn("SECURITY_EVENT",
		zap.String("event_type", eventType),
		zap.Any("details", SanitizeForLog(details)),
	)
}

// LogAuthAttempt registra intentos de autenticación
func LogAuthAttempt(username string, success bool, ip string) {
	if success {
		Logger.Info("Authentication successful",
			zap.String("username", username),
			zap.String("ip", ip),
		)
		return
	}
	Logger.Warn("Authentication failed",
		zap.String("username", username),
		zap.String("ip", ip),
	)
}
