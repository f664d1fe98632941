package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/NicolasR-dev/dinocars-web/config"
	"github.com/NicolasR-dev/dinocars-web/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// Tipos de endpoint con límite propio, además del global
const (
	EndpointFileUpload = "file_upload"
	EndpointReports    = "api_reports"
	EndpointAdmin      = "api_admin"
)

// RateLimitConfig configura límites personalizados por endpoint
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

var endpointLimits = map[string]RateLimitConfig{
	EndpointFileUpload: {Requests: 10, Window: 1 * time.Minute},
	EndpointReports:    {Requests: 20, Window: 1 * time.Minute},
	EndpointAdmin:      {Requests: 50, Window: 1 * time.Minute},
}

// EndpointLimiters agrupa un limiter por tipo de endpoint sobre un mismo store
type EndpointLimiters struct {
	enabled  bool
	limiters map[string]*limiter.Limiter
}

func NewEndpointLimiters(cfg *config.Config) *EndpointLimiters {
	store := memory.NewStore()
	limiters := make(map[string]*limiter.Limiter, len(endpointLimits))
	for name, lc := range endpointLimits {
		limiters[name] = limiter.New(store, limiter.Rate{
			Period: lc.Window,
			Limit:  int64(lc.Requests),
		})
	}

	utils.Logger.Info("🚦 Rate limiters initialized",
		zap.Int("total_limiters", len(limiters)),
		zap.Bool("enabled", cfg.EnableRateLimit),
	)
	return &EndpointLimiters{enabled: cfg.EnableRateLimit, limiters: limiters}
}

// Limit aplica el límite del tipo de endpoint. La clave combina tipo e IP
// porque todos comparten el store.
func (l *EndpointLimiters) Limit(endpointType string) gin.HandlerFunc {
	lim, exists := l.limiters[endpointType]

	return func(c *gin.Context) {
		if !l.enabled || !exists {
			c.Next()
			return
		}

		ip := c.ClientIP()
		lctx, err := lim.Get(c.Request.Context(), endpointType+":"+ip)
		if err != nil {
			utils.Logger.Error("Rate limiter error", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			utils.LogSecurityEvent("rate_limit_exceeded", map[string]interface{}{
				"ip":       ip,
				"endpoint": endpointType,
				"path":     c.Request.URL.Path,
			})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Límite de peticiones excedido. Intenta más tarde.",
				"code":        "RATE_LIMITED",
				"retry_after": lctx.Reset,
			})
			return
		}

		c.Next()
	}
}

// Stats retorna la configuración de límites por endpoint
func (l *EndpointLimiters) Stats() map[string]interface{} {
	stats := make(map[string]interface{}, len(endpointLimits))
	for name, lc := range endpointLimits {
		stats[name] = map[string]interface{}{
			"requests":       lc.Requests,
			"window_seconds": lc.Window.Seconds(),
		}
	}
	return stats
}

// CORSMiddleware con whitelist de ALLOWED_ORIGINS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Disposition", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	}

	allowAll := false
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
	}
	switch {
	case allowAll:
		// Con comodín no se envían credenciales
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	case len(cfg.AllowedOrigins) == 0:
		// Sin orígenes configurados solo se atiende same-origin
		corsCfg.AllowOriginFunc = func(string) bool { return false }
	default:
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	if len(corsCfg.AllowMethods) == 0 {
		corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(corsCfg.AllowHeaders) == 0 {
		corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	}

	return cors.New(corsCfg)
}
