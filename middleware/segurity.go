package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/NicolasR-dev/dinocars-web/config"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// RequestIDHeader viaja en la respuesta y en cada línea de log de la petición
const RequestIDHeader = "X-Request-ID"

// RateLimitMiddleware implementa rate limiting global por IP
func RateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	if !cfg.EnableRateLimit {
		return func(c *gin.Context) { c.Next() }
	}

	rate := limiter.Rate{
		Period: cfg.RateLimitDuration,
		Limit:  int64(cfg.RateLimitRequests),
	}
	instance := limiter.New(memory.NewStore(), rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			utils.LogSecurityEvent("rate_limit_exceeded", map[string]interface{}{
				"ip":   c.ClientIP(),
				"path": c.Request.URL.Path,
			})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Límite de peticiones excedido. Intenta más tarde.",
				"code":  "RATE_LIMITED",
			})
		}),
		mgin.WithErrorHandler(rateLimiterError),
	)
}

// LoginRateLimitMiddleware implementa rate limiting específico para login
func LoginRateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	if !cfg.EnableRateLimit {
		return func(c *gin.Context) { c.Next() }
	}

	rate := limiter.Rate{
		Period: cfg.LoginRateLimitDuration,
		Limit:  int64(cfg.LoginRateLimitRequests),
	}
	instance := limiter.New(memory.NewStore(), rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			utils.LogSecurityEvent("login_rate_limit_exceeded", map[string]interface{}{
				"ip":   c.ClientIP(),
				"path": c.Request.URL.Path,
			})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Demasiados intentos de login. Intenta en unos minutos.",
				"code":  "RATE_LIMITED",
			})
		}),
		mgin.WithErrorHandler(rateLimiterError),
	)
}

// Si el store falla se deja pasar la petición
func rateLimiterError(c *gin.Context, err error) {
	utils.Logger.Error("Rate limiter error", zap.Error(err))
	c.Next()
}

// SecurityHeadersMiddleware añade headers de seguridad
func SecurityHeadersMiddleware(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if production {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		// Deshabilitar cache para rutas sensibles
		if isSensitivePath(c.Request.URL.Path) {
			h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		c.Next()
	}
}

// ForceHTTPS redirige HTTP a HTTPS detrás del proxy en producción
func ForceHTTPS(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !production || c.Request.Header.Get("X-Forwarded-Proto") != "http" {
			c.Next()
			return
		}

		target := "https://" + c.Request.Host + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			target += "?" + c.Request.URL.RawQuery
		}

		utils.Logger.Info("HTTP request redirected to HTTPS",
			zap.String("path", c.Request.URL.Path),
			zap.String("target_url", target),
		)

		c.Redirect(http.StatusPermanentRedirect, target)
		c.Abort()
	}
}

// RequestLoggerMiddleware asigna el request id y registra cada petición sin datos sensibles
func RequestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()

		ctx := c.Request.Context()
		utils.LogRequest(ctx, c.Request.Method, c.FullPath(), c.ClientIP(),
			c.Writer.Status(), time.Since(start), c.GetUint(ContextUserID))

		for _, e := range c.Errors {
			utils.LoggerFrom(ctx).Error("Request error",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("error", e.Error()),
			)
		}
	}
}

// RequestSizeLimitMiddleware limita el tamaño del body
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxSize > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		c.Next()
	}
}

// TimeoutMiddleware pone un deadline al contexto de la petición. Las
// consultas usan WithContext, así que se cancelan al vencer.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			utils.LoggerFrom(ctx).Warn("Request timeout exceeded",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "La petición tardó demasiado",
				"code":  "TIMEOUT",
			})
		}
	}
}

var sensitivePaths = []string{
	"/api/token",
	"/api/me",
	"/api/last-record",
	"/api/records",
	"/api/users",
	"/api/admin",
}

// isSensitivePath determina si una ruta es sensible (no debe cachearse)
func isSensitivePath(path string) bool {
	for _, sp := range sensitivePaths {
		if strings.HasPrefix(path, sp) {
			return true
		}
	}
	return false
}
