package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/trademark-search/internal/config"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	httpapi "github.com/turtacn/trademark-search/internal/interfaces/http"
	"github.com/turtacn/trademark-search/internal/interfaces/http/handlers"
	"github.com/turtacn/trademark-search/internal/interfaces/http/middleware"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cliCtx)
		},
	}
}

func runServe(ctx context.Context, cliCtx *CLIContext) error {
	cfg, logger := cliCtx.Config, cliCtx.Logger

	app, err := NewApp(ctx, cfg, logger, appOptions{events: true, metrics: true, seed: true})
	if err != nil {
		return err
	}
	defer app.Close()

	handler, stop := buildHandler(app)
	defer stop()

	if cliCtx.ConfigPath != "" {
		watchLogLevel(cliCtx.ConfigPath, logger)
	}

	srv := httpapi.NewServer(cfg.Server, handler, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("Trademark search API started",
		logging.String("addr", srv.Addr()),
		logging.String("backend", cfg.Search.Backend),
		logging.String("environment", cfg.App.Environment),
		logging.String("version", Version))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("Server exited")
	return nil
}

// buildHandler assembles the route tree for app.  The returned func stops the
// rate limiter's cleanup loop.
func buildHandler(app *App) (http.Handler, func()) {
	cfg, logger := app.Config, app.Logger
	stop := func() {}

	var observer handlers.HealthObserver
	var httpMetrics middleware.HTTPMetrics
	if app.Metrics != nil {
		observer = app.Metrics
		httpMetrics = app.Metrics
	}
	health := handlers.NewHealthHandler(handlers.AppInfo{
		Name:        cfg.App.Name,
		Version:     appVersion(cfg),
		Environment: cfg.App.Environment,
		APIPrefix:   cfg.App.APIPrefix,
	}, cfg.Search.Backend, observer, app.Checkers...)

	rc := httpapi.RouterConfig{
		Mode:             cfg.Server.Mode,
		APIPrefix:        cfg.App.APIPrefix,
		TrademarkHandler: handlers.NewTrademarkHandler(app.Service, logger),
		HealthHandler:    health,
		Logging: middleware.LoggingConfig{
			SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
			SlowThreshold: cfg.Server.SlowRequestThreshold,
		},
		HTTPMetrics:    httpMetrics,
		MetricsHandler: app.MetricsHandler,
		Logger:         logger,
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.Server.CORSOrigins
	}
	rc.CORS = &cors

	if cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, time.Minute)
		rc.RateLimiter = limiter
		rc.RateLimit = middleware.DefaultRateLimitConfig()
		rc.RateLimit.RequestsPerSecond = cfg.Server.RateLimitRPS
		rc.RateLimit.BurstSize = cfg.Server.RateLimitBurst
		rc.RateLimit.SkipPaths = []string{"/healthz", "/readyz", "/metrics"}
		stop = limiter.Stop
	}

	return httpapi.NewRouter(rc), stop
}

// watchLogLevel applies log.level changes in path without a restart.
func watchLogLevel(path string, logger logging.Logger) {
	setter, ok := logger.(logging.LevelSetter)
	if !ok {
		return
	}
	err := config.Watch(path, func(cfg *config.Config) {
		if err := setter.SetLevel(cfg.Log.Level); err != nil {
			logger.Warn("Ignoring invalid log level", logging.String("level", cfg.Log.Level), logging.Err(err))
			return
		}
		logger.Info("Log level updated", logging.String("level", cfg.Log.Level))
	}, func(err error) {
		logger.Warn("Config reload failed", logging.Err(err))
	})
	if err != nil {
		logger.Warn("Config watch disabled", logging.Err(err))
	}
}

func appVersion(cfg *config.Config) string {
	if cfg.App.Version != "" {
		return cfg.App.Version
	}
	return Version
}
