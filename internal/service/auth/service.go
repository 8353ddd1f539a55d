package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-rbac/internal/email"
	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
	"github.com/jwalitptl/clinic-rbac/internal/service/audit"
	"github.com/jwalitptl/clinic-rbac/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
	"github.com/jwalitptl/clinic-rbac/pkg/metrics"
	"github.com/jwalitptl/clinic-rbac/pkg/security"
	"github.com/jwalitptl/clinic-rbac/pkg/validator"
)

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutWindow    = 15 * time.Minute
	tokenType               = "Bearer"

	opLogin policy.Operation = "login"
)

// Config tunes registration and login.
type Config struct {
	PasswordPolicy   security.PasswordPolicy
	MaxLoginAttempts int
	LockoutWindow    time.Duration
}

type Service struct {
	users     repository.UserRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	attempts  repository.LoginAttemptStore
	emailSvc  email.Service
	auditor   *audit.Service
	metrics   *metrics.Metrics
	validate  validator.Validator
	cfg       Config
	dummyHash string
}

// NewService wires the credential lifecycle. attempts, emailSvc, auditor and
// m may be nil; throttling, welcome mail, audit and metrics are then skipped.
func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher,
	attempts repository.LoginAttemptStore, emailSvc email.Service, auditor *audit.Service, m *metrics.Metrics, cfg Config) *Service {
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = defaultMaxLoginAttempts
	}
	if cfg.LockoutWindow <= 0 {
		cfg.LockoutWindow = defaultLockoutWindow
	}

	// compared against when the username is unknown so both failure paths pay for bcrypt
	dummy, err := hasher.Hash("clinic-dummy-password")
	if err != nil {
		log.Warn().Err(err).Msg("failed to prepare dummy password hash")
	}

	return &Service{
		users:     users,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		attempts:  attempts,
		emailSvc:  emailSvc,
		auditor:   auditor,
		metrics:   m,
		validate:  validator.New(),
		cfg:       cfg,
		dummyHash: dummy,
	}
}

// Register creates a principal. Uniqueness is left to the store so concurrent
// duplicates resolve to exactly one success.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.RegisterResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if err := s.validate.Validate(req); err != nil {
		s.countRegistration("invalid")
		return nil, validator.ToAppError(err)
	}
	role, err := policy.ParseRole(string(req.Role))
	if err != nil {
		s.countRegistration("invalid")
		return nil, apperrors.Validation("validation failed", map[string]string{"role": err.Error()})
	}
	if problems := s.cfg.PasswordPolicy.Check(req.Password); len(problems) > 0 {
		s.countRegistration("invalid")
		return nil, apperrors.Validation("validation failed", map[string]string{
			"password": strings.Join(problems, ", "),
		})
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		FullName:     req.FullName,
		Phone:        req.Phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.countRegistration("conflict")
			return nil, apperrors.Conflict("username or email already exists", err)
		}
		return nil, apperrors.Internal(err)
	}
	s.countRegistration("success")

	s.auditor.Log(ctx, user.Principal(), policy.OpCreate, policy.ResourceUsers, user.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"username": user.Username},
	})

	if s.emailSvc != nil {
		if err := s.emailSvc.SendWelcome(ctx, user.Email, user.FullName, user.Username); err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("welcome email failed")
		}
	}

	return &model.RegisterResponse{UserID: user.ID, User: user.Public()}, nil
}

// Login returns the same InvalidCredentials error for an unknown user, a wrong
// password and a throttled username.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if err := s.validate.Validate(req); err != nil {
		return nil, validator.ToAppError(err)
	}

	if s.throttled(ctx, username) {
		s.countLogin("throttled")
		return nil, apperrors.InvalidCredentials()
	}

	user, err := s.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		_ = s.hasher.Compare(s.dummyHash, req.Password)
		s.recordFailure(ctx, username)
		s.countLogin("failure")
		return nil, apperrors.InvalidCredentials()
	case err != nil:
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.recordFailure(ctx, username)
		s.countLogin("failure")
		s.auditor.Log(ctx, user.Principal(), opLogin, policy.ResourceUsers, user.ID, &audit.LogOptions{Outcome: audit.OutcomeFailure})
		return nil, apperrors.InvalidCredentials()
	}

	token, expiresAt, err := s.jwtSvc.Issue(user.Principal())
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.resetFailures(ctx, username)
	s.countLogin("success")
	s.auditor.Log(ctx, user.Principal(), opLogin, policy.ResourceUsers, user.ID, nil)

	return &model.LoginResponse{
		Token:     token,
		TokenType: tokenType,
		ExpiresAt: expiresAt,
		User:      user.Public(),
	}, nil
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, p policy.Principal) (*model.PublicUser, error) {
	user, err := s.users.Get(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// token outlived its principal
			return nil, apperrors.Unauthenticated(err)
		}
		return nil, apperrors.Internal(err)
	}
	pub := user.Public()
	return &pub, nil
}

// AdminSeed describes the administrator created on first start.
type AdminSeed struct {
	Username string
	Email    string
	Password string
	FullName string
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
// It reports whether a principal was created.
func (s *Service) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	if seed.Username == "" {
		return false, nil
	}
	_, err := s.users.GetByUsername(ctx, seed.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, apperrors.Internal(err)
	}

	hash, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	user := &model.User{
		Username:     seed.Username,
		Email:        strings.ToLower(seed.Email),
		PasswordHash: hash,
		Role:         policy.RoleAdministrator,
		FullName:     seed.FullName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// another instance won the race
			return false, nil
		}
		return false, apperrors.Internal(err)
	}
	log.Ctx(ctx).Info().Str("username", user.Username).Int64("user_id", user.ID).Msg("bootstrap administrator created")
	return true, nil
}

func (s *Service) throttled(ctx context.Context, username string) bool {
	if s.attempts == nil {
		return false
	}
	n, err := s.attempts.Failures(ctx, username)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("login throttle unavailable")
		return false
	}
	return n >= s.cfg.MaxLoginAttempts
}

func (s *Service) recordFailure(ctx context.Context, username string) {
	if s.attempts == nil {
		return
	}
	if _, err := s.attempts.RecordFailure(ctx, username, s.cfg.LockoutWindow); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to record login failure")
	}
}

func (s *Service) resetFailures(ctx context.Context, username string) {
	if s.attempts == nil {
		return
	}
	if err := s.attempts.Reset(ctx, username); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to reset login failures")
	}
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.Registrations.WithLabelValues(outcome).Inc()
	}
}
