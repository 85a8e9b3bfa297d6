package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ovpnsync/internal/metrics"
	"ovpnsync/internal/server/api/middleware"
	"ovpnsync/internal/server/api/response"
	av1 "ovpnsync/internal/server/api/v1"
	"ovpnsync/internal/types"
	"ovpnsync/internal/version"
)

// HealthCheck reports the health of a dependency
type HealthCheck func(ctx context.Context) error

// Option customizes a Router
type Option func(*Router)

// WithHealthCheck adds check to /healthz under name
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(r *Router) {
		r.checks = append(r.checks, namedCheck{name: name, check: check})
	}
}

type namedCheck struct {
	name  string
	check HealthCheck
}

// Router handles all routing logic
type Router struct {
	engine  *gin.Engine
	status  av1.StatusProvider
	metrics *metrics.Metrics
	logger  *zap.Logger
	checks  []namedCheck
	started time.Time
}

// NewRouter creates and configures a new router. m may be nil to omit
// the /metrics endpoint.
func NewRouter(status av1.StatusProvider, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Router {
	if !logger.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:  gin.New(),
		status:  status,
		metrics: m,
		logger:  logger,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Handler returns the HTTP handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// setupMiddleware configures all middleware
func (r *Router) setupMiddleware() {
	m := middleware.New(r.logger)

	r.engine.Use(m.RequestID())
	r.engine.Use(m.Logger())
	r.engine.Use(m.Recovery())
	r.engine.Use(m.Secure())
	r.engine.Use(m.NoCache())
}

// setupRoutes configures health, metrics and v1 API routes
func (r *Router) setupRoutes() {
	r.engine.GET("/healthz", r.healthCheck)

	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	av1.NewAPI(r.status, r.logger).RegisterRoutes(r.engine.Group("/api/v1"))

	r.engine.NoRoute(func(c *gin.Context) {
		response.New(c, r.logger).NotFound(errNotFound)
	})
}

// healthCheck reports unhealthy once the last cycle failed or a
// dependency check fails
func (r *Router) healthCheck(c *gin.Context) {
	st := r.status.Status()
	health := types.HealthStatus{
		Healthy:   st.LastErrorKind == types.KindNone,
		Timestamp: time.Now(),
		Version:   version.Version,
		StartTime: r.started,
		Uptime:    time.Since(r.started),
	}

	for _, nc := range r.checks {
		if err := nc.check(c.Request.Context()); err != nil {
			if health.Checks == nil {
				health.Checks = make(map[string]string)
			}
			health.Checks[nc.name] = err.Error()
			health.Healthy = false
		}
	}

	resp := response.New(c, r.logger)
	if !health.Healthy {
		resp.Custom(http.StatusServiceUnavailable, health)
		return
	}
	resp.Custom(http.StatusOK, health)
}
