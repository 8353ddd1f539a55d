package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-rbac/internal/handler/health"
	"github.com/jwalitptl/clinic-rbac/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-rbac/internal/middleware"
	"github.com/jwalitptl/clinic-rbac/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// AuthHandler registers public routes plus routes guarded by authenticate.
type AuthHandler interface {
	RegisterRoutes(r *gin.RouterGroup, authenticate gin.HandlerFunc)
}

type Handlers struct {
	Auth         AuthHandler
	Users        Handler
	Appointments Handler
	Records      Handler
	Patients     Handler
	Health       *health.Handler
	// Metrics is optional; /metrics is not served without it.
	Metrics *prometheus.Handler
}

type RouterConfig struct {
	Mode             string
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	Timeout          time.Duration
	MaxBodyBytes     int64
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()

	// request id first so every later middleware logs with it
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)
	if m != nil {
		engine.Use(middleware.Metrics(m))
	}
	engine.Use(
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.MaxBodyBytes),
		middleware.Timeout(config.Timeout),
	)
	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}
}

func (r *Router) Setup() {
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(r.engine)
	}
	if r.handlers.Metrics != nil {
		r.engine.GET("/metrics", r.handlers.Metrics.Handler())
	}

	api := r.engine.Group("/api/v1")
	authenticate := r.auth.Authenticate()
	r.handlers.Auth.RegisterRoutes(api, authenticate)

	protected := api.Group("")
	protected.Use(authenticate)
	for _, h := range []Handler{
		r.handlers.Users,
		r.handlers.Appointments,
		r.handlers.Records,
		r.handlers.Patients,
	} {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
