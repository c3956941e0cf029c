package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// HealthChecker is a component that can report its health.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a ping function to HealthChecker.
type CheckerFunc struct {
	ComponentName string
	Fn            func(ctx context.Context) error
}

func (f CheckerFunc) Name() string                    { return f.ComponentName }
func (f CheckerFunc) Check(ctx context.Context) error { return f.Fn(ctx) }

// HealthObserver receives per-component results, e.g. for a health gauge.
type HealthObserver interface {
	SetComponentHealth(component string, up bool)
}

// AppInfo identifies the running service.
type AppInfo struct {
	Name        string
	Version     string
	Environment string
	APIPrefix   string
}

// HealthHandler serves the info, health, liveness and readiness endpoints.
// The checker named by database drives the database field of /health.
type HealthHandler struct {
	info     AppInfo
	checkers []HealthChecker
	database string
	observer HealthObserver
	startAt  time.Time
	timeout  time.Duration
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(info AppInfo, database string, observer HealthObserver, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{
		info:     info,
		checkers: checkers,
		database: database,
		observer: observer,
		startAt:  time.Now(),
		timeout:  5 * time.Second,
	}
}

// RegisterRoutes mounts the endpoints on r.
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
}

// RootResponse is the body of GET /.
type RootResponse struct {
	AppName string `json:"app_name"`
	Version string `json:"version"`
	APIURL  string `json:"api_url"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Database    string `json:"database"`
	Environment string `json:"environment"`
}

// LivenessResponse is the body of GET /healthz.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the body of GET /readyz.
type ReadinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// ComponentCheck is the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Root handles GET /.
func (h *HealthHandler) Root(c *gin.Context) {
	writeJSON(c, http.StatusOK, RootResponse{AppName: h.info.Name, Version: h.info.Version, APIURL: h.info.APIPrefix})
}

// Health handles GET /health.  It always answers 200 and reports whether the
// database is reachable.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	db := "connected"
	for _, chk := range h.checkers {
		if chk.Name() != h.database {
			continue
		}
		if err := chk.Check(ctx); err != nil {
			db = "disconnected"
		}
		if h.observer != nil {
			h.observer.SetComponentHealth(chk.Name(), db == "connected")
		}
	}
	writeJSON(c, http.StatusOK, HealthResponse{
		Status:      "ok",
		Message:     "server is running",
		Database:    db,
		Environment: h.info.Environment,
	})
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(c *gin.Context) {
	writeJSON(c, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.info.Version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz: 200 when every dependency answers, 503
// otherwise.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if len(h.checkers) == 0 {
		writeJSON(c, http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	components := h.checkAll(ctx)
	resp := ReadinessResponse{Status: "ready", Components: components}
	code := http.StatusOK
	for _, cc := range components {
		if cc.Status != "healthy" {
			resp.Status = "not_ready"
			code = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(c, code, resp)
}

// checkAll runs every checker concurrently.
func (h *HealthHandler) checkAll(ctx context.Context) map[string]ComponentCheck {
	results := make(map[string]ComponentCheck, len(h.checkers))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, checker := range h.checkers {
		checker := checker
		g.Go(func() error {
			start := time.Now()
			err := checker.Check(gctx)
			cc := ComponentCheck{
				Status:  "healthy",
				Latency: time.Since(start).Truncate(time.Microsecond).String(),
			}
			if err != nil {
				cc.Status = "unhealthy"
				cc.Error = err.Error()
			}
			if h.observer != nil {
				h.observer.SetComponentHealth(checker.Name(), err == nil)
			}
			mu.Lock()
			results[checker.Name()] = cc
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
