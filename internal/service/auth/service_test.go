package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
	"github.com/jwalitptl/clinic-rbac/internal/repository/memory"
	"github.com/jwalitptl/clinic-rbac/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
	"github.com/jwalitptl/clinic-rbac/pkg/metrics"
	"github.com/jwalitptl/clinic-rbac/pkg/security"
)

type fakeAttempts struct {
	mu       sync.Mutex
	failures map[string]int
	err      error
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{failures: make(map[string]int)}
}

func (f *fakeAttempts) Failures(_ context.Context, key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[key], f.err
}

func (f *fakeAttempts) RecordFailure(_ context.Context, key string, _ time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.failures[key]++
	return f.failures[key], nil
}

func (f *fakeAttempts) Reset(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, key)
	return f.err
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) SendWelcome(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return m.err
}

type fixture struct {
	svc      *Service
	store    repository.Store
	jwtSvc   auth.JWTService
	attempts *fakeAttempts
	mailer   *recordingMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	jwtSvc, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	store := memory.NewStore()
	attempts := newFakeAttempts()
	mailer := &recordingMailer{}
	svc := NewService(store.Users, jwtSvc, security.NewBcryptHasher(bcrypt.MinCost), attempts, mailer, nil, metrics.NewNop(), Config{
		PasswordPolicy:   security.DefaultPasswordPolicy(),
		MaxLoginAttempts: 3,
		LockoutWindow:    time.Minute,
	})
	return &fixture{svc: svc, store: store, jwtSvc: jwtSvc, attempts: attempts, mailer: mailer}
}

func registerRequest(username string) *model.RegisterRequest {
	return &model.RegisterRequest{
		Username: username,
		Email:    username + "@Example.com",
		Password: "pass@123",
		Role:     policy.RolePatient,
		FullName: "Test " + username,
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Register(context.Background(), registerRequest("alice"))
	require.NoError(t, err)
	assert.Positive(t, resp.UserID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, policy.RolePatient, resp.User.Role)
	assert.Equal(t, []string{"alice@example.com"}, f.mailer.sent)

	stored, err := f.store.Users.Get(context.Background(), resp.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, "pass@123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pass@123")))
}

func TestRegisterCanonicalizesRole(t *testing.T) {
	f := newFixture(t)
	req := registerRequest("bob")
	req.Role = "doctor"

	resp, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, policy.RoleDoctor, resp.User.Role)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(r *model.RegisterRequest)
		field string
	}{
		{"missing username", func(r *model.RegisterRequest) { r.Username = "" }, "username"},
		{"bad email", func(r *model.RegisterRequest) { r.Email = "not-an-email" }, "email"},
		{"unknown role", func(r *model.RegisterRequest) { r.Role = "Janitor" }, "role"},
		{"short password", func(r *model.RegisterRequest) { r.Password = "a1" }, "password"},
		{"password without digit", func(r *model.RegisterRequest) { r.Password = "password" }, "password"},
		// 32 characters, 92 bytes: within the character limit, over bcrypt's
		{"multibyte password over 72 bytes", func(r *model.RegisterRequest) { r.Password = strings.Repeat("日", 30) + "a1" }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := registerRequest("carol")
			tt.edit(req)

			_, err := f.svc.Register(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.KindValidation)
			assert.Contains(t, apperrors.As(err).Details, tt.field)
		})
	}
}

func TestRegisterPasswordByteLimit(t *testing.T) {
	f := newFixture(t)

	// 62 bytes of multibyte text still hashes
	req := registerRequest("dave")
	req.Password = strings.Repeat("日", 20) + "a1"
	_, err := f.svc.Register(context.Background(), req)
	require.NoError(t, err)

	req = registerRequest("erin")
	req.Password = strings.Repeat("日", 30) + "a1"
	_, err = f.svc.Register(context.Background(), req)
	require.ErrorIs(t, err, apperrors.KindValidation)
	assert.Equal(t, "must not exceed 72 bytes", apperrors.As(err).Details["password"])
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), registerRequest("dave"))
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), registerRequest("dave"))
	assert.ErrorIs(t, err, apperrors.KindConflict)
}

func TestRegisterConcurrentDuplicate(t *testing.T) {
	f := newFixture(t)

	const n = 2
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Register(context.Background(), registerRequest("erin"))
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperrors.KindConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.Register(context.Background(), registerRequest("frank"))
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	reg, err := f.svc.Register(context.Background(), registerRequest("grace"))
	require.NoError(t, err)

	resp, err := f.svc.Login(context.Background(), &model.LoginRequest{Username: "grace", Password: "pass@123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, reg.UserID, resp.User.ID)

	claims, err := f.jwtSvc.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, claims.UserID)
	assert.Equal(t, policy.RolePatient, claims.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), registerRequest("heidi"))
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(context.Background(), &model.LoginRequest{Username: "heidi", Password: "nope1234"})
	_, unknownUser := f.svc.Login(context.Background(), &model.LoginRequest{Username: "nobody", Password: "pass@123"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)
	assert.ErrorIs(t, wrongPassword, apperrors.KindInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	assert.Equal(t, apperrors.As(wrongPassword), apperrors.As(unknownUser))
}

func TestLoginThrottle(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), registerRequest("ivan"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(context.Background(), &model.LoginRequest{Username: "ivan", Password: "wrong123"})
		require.ErrorIs(t, err, apperrors.KindInvalidCredentials)
	}

	// correct password is still refused while locked out
	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Username: "ivan", Password: "pass@123"})
	assert.ErrorIs(t, err, apperrors.KindInvalidCredentials)

	require.NoError(t, f.attempts.Reset(context.Background(), "ivan"))
	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Username: "ivan", Password: "pass@123"})
	assert.NoError(t, err)
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), registerRequest("judy"))
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Username: "judy", Password: "wrong123"})
	require.Error(t, err)
	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Username: "judy", Password: "pass@123"})
	require.NoError(t, err)

	n, err := f.attempts.Failures(context.Background(), "judy")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoginThrottleFailsOpen(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), registerRequest("ken"))
	require.NoError(t, err)
	f.attempts.err = errors.New("redis down")

	_, err = f.svc.Login(context.Background(), &model.LoginRequest{Username: "ken", Password: "pass@123"})
	assert.NoError(t, err)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	reg, err := f.svc.Register(context.Background(), registerRequest("leo"))
	require.NoError(t, err)

	me, err := f.svc.Me(context.Background(), policy.Principal{ID: reg.UserID, Role: policy.RolePatient})
	require.NoError(t, err)
	assert.Equal(t, "leo", me.Username)

	_, err = f.svc.Me(context.Background(), policy.Principal{ID: 999, Role: policy.RolePatient})
	assert.ErrorIs(t, err, apperrors.KindUnauthenticated)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	seed := AdminSeed{Username: "root", Email: "Root@Clinic.local", Password: "rootpass1", FullName: "Root"}

	created, err := f.svc.EnsureAdmin(context.Background(), seed)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.EnsureAdmin(context.Background(), seed)
	require.NoError(t, err)
	assert.False(t, created)

	user, err := f.store.Users.GetByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, policy.RoleAdministrator, user.Role)
	assert.Equal(t, "root@clinic.local", user.Email)

	created, err = f.svc.EnsureAdmin(context.Background(), AdminSeed{})
	require.NoError(t, err)
	assert.False(t, created)
}
