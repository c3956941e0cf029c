// Package http is the REST transport of the trademark search service.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/internal/interfaces/http/handlers"
	"github.com/turtacn/trademark-search/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the route tree.
type RouterConfig struct {
	Mode      string // gin mode
	APIPrefix string

	TrademarkHandler *handlers.TrademarkHandler
	HealthHandler    *handlers.HealthHandler

	CORS        *middleware.CORSConfig
	Logging     middleware.LoggingConfig
	RateLimiter middleware.RateLimiter
	RateLimit   middleware.RateLimitConfig
	HTTPMetrics middleware.HTTPMetrics

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	Logger logging.Logger
}

// NewRouter builds the gin engine and wraps it with CORS.  Middleware order:
// request id, recovery, metrics, access log, rate limit.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Metrics(cfg.HTTPMetrics))
	}
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.RateLimit))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Code: "COMMON_005", Message: "resource not found"})
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	if cfg.TrademarkHandler != nil {
		cfg.TrademarkHandler.RegisterRoutes(r.Group(cfg.APIPrefix))
	}

	if cfg.CORS == nil {
		return r
	}
	return middleware.CORS(*cfg.CORS)(r)
}
