// Package app assembles stores, services and the HTTP router from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-rbac/internal/config"
	"github.com/jwalitptl/clinic-rbac/internal/email"
	appointmentHandler "github.com/jwalitptl/clinic-rbac/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-rbac/internal/handler/auth"
	"github.com/jwalitptl/clinic-rbac/internal/handler/health"
	medicalHandler "github.com/jwalitptl/clinic-rbac/internal/handler/medical"
	patientHandler "github.com/jwalitptl/clinic-rbac/internal/handler/patient"
	"github.com/jwalitptl/clinic-rbac/internal/handler/prometheus"
	userHandler "github.com/jwalitptl/clinic-rbac/internal/handler/user"
	"github.com/jwalitptl/clinic-rbac/internal/middleware"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
	"github.com/jwalitptl/clinic-rbac/internal/repository/memory"
	"github.com/jwalitptl/clinic-rbac/internal/repository/postgres"
	redisstore "github.com/jwalitptl/clinic-rbac/internal/repository/redis"
	"github.com/jwalitptl/clinic-rbac/internal/router"
	appointmentService "github.com/jwalitptl/clinic-rbac/internal/service/appointment"
	"github.com/jwalitptl/clinic-rbac/internal/service/audit"
	authService "github.com/jwalitptl/clinic-rbac/internal/service/auth"
	medicalService "github.com/jwalitptl/clinic-rbac/internal/service/medical"
	patientService "github.com/jwalitptl/clinic-rbac/internal/service/patient"
	userService "github.com/jwalitptl/clinic-rbac/internal/service/user"
	"github.com/jwalitptl/clinic-rbac/pkg/auth"
	"github.com/jwalitptl/clinic-rbac/pkg/metrics"
	"github.com/jwalitptl/clinic-rbac/pkg/security"
)

// App is a fully wired instance.
type App struct {
	Config *config.Config
	Store  repository.Store
	Auth   *authService.Service
	Router *router.Router

	closers []io.Closer
}

// Options override pieces of the wiring, mostly for tests.
type Options struct {
	// Store replaces the store selected by database.driver.
	Store *repository.Store
	// Attempts replaces the redis backed login attempt store.
	Attempts repository.LoginAttemptStore
	// Mailer replaces the SMTP sender.
	Mailer email.Service
}

// New builds the application. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	var m *metrics.Metrics
	var promH *prometheus.Handler
	if cfg.Metrics.Enabled {
		promH = prometheus.New()
		m = metrics.NewMetrics(promH.Registry(), cfg.Metrics.Namespace)
	}

	store, err := a.openStore(ctx, cfg.Database, opts.Store)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	attempts := opts.Attempts
	if attempts == nil && cfg.Redis.URL != "" {
		client, err := redisstore.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, client)
		attempts = redisstore.NewLoginAttemptStore(client, m)
	}

	mailer := opts.Mailer
	if mailer == nil {
		mailer = email.NewService(cfg.SMTP)
	}

	jwtSvc, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry(), auth.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		a.Close()
		return nil, err
	}

	evaluator := policy.New(policy.WithObserver(decisionObserver(m)))
	auditor := audit.NewService(log.Logger)

	a.Auth = authService.NewService(
		store.Users,
		jwtSvc,
		security.NewBcryptHasher(cfg.Password.BcryptCost),
		attempts,
		mailer,
		auditor,
		m,
		authService.Config{
			PasswordPolicy: security.PasswordPolicy{
				MinLength:     cfg.Password.MinLength,
				RequireLower:  cfg.Password.RequireLower,
				RequireUpper:  cfg.Password.RequireUpper,
				RequireDigit:  cfg.Password.RequireDigit,
				RequireSymbol: cfg.Password.RequireSymbol,
			},
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			LockoutWindow:    cfg.Auth.LockoutWindow(),
		},
	)

	handlers := router.Handlers{
		Auth:         authHandler.NewHandler(a.Auth),
		Users:        userHandler.NewHandler(userService.NewService(store.Users, evaluator, auditor)),
		Appointments: appointmentHandler.NewHandler(appointmentService.NewService(store.Appointments, store.Users, evaluator, auditor)),
		Records:      medicalHandler.NewHandler(medicalService.NewService(store.MedicalRecords, store.Users, evaluator, auditor)),
		Patients:     patientHandler.NewHandler(patientService.NewService(store, evaluator, auditor)),
		Health:       health.NewHandler(store.Health),
		Metrics:      promH,
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		cors.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	a.Router = router.NewRouter(middleware.NewAuthMiddleware(jwtSvc, m), handlers, m, router.RouterConfig{
		Mode:             cfg.Server.Mode,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       cors,
		Timeout:          time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
	})
	a.Router.Setup()

	return a, nil
}

// EnsureAdmin creates the configured bootstrap administrator if missing.
func (a *App) EnsureAdmin(ctx context.Context) error {
	b := a.Config.Bootstrap
	_, err := a.Auth.EnsureAdmin(ctx, authService.AdminSeed{
		Username: b.AdminUsername,
		Email:    b.AdminEmail,
		Password: b.AdminPassword,
		FullName: b.AdminFullName,
	})
	return err
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close resource")
		}
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context, cfg config.DatabaseConfig, override *repository.Store) (repository.Store, error) {
	if override != nil {
		return *override, nil
	}

	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	case config.DriverPostgres:
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return repository.Store{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db)
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return repository.Store{}, err
		}
		return postgres.NewStore(db), nil
	default:
		return repository.Store{}, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func decisionObserver(m *metrics.Metrics) func(policy.Action, bool) {
	if m == nil {
		return nil
	}
	return func(a policy.Action, allowed bool) {
		decision := "deny"
		if allowed {
			decision = "allow"
		}
		m.PolicyDecisions.WithLabelValues(string(a.Resource), string(a.Operation), decision).Inc()
	}
}
