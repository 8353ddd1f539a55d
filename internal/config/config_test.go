package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: memory
jwt:
  secret: file-secret
  expiry_hours: 2
password:
  min_length: 10
bootstrap:
  admin_username: admin
  admin_password: admin123
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiry())
	assert.Equal(t, 10, cfg.Password.MinLength)
	assert.True(t, cfg.Password.RequireDigit)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutWindow())
	assert.Equal(t, "System Administrator", cfg.Bootstrap.AdminFullName)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: file-secret
`)
	t.Setenv("CLINIC_JWT_SECRET", "env-secret")
	t.Setenv("CLINIC_DATABASE_HOST", "db.internal")
	t.Setenv("CLINIC_RATE_LIMIT_BURST", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 7, cfg.RateLimit.Burst)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	t.Setenv("CLINIC_JWT_SECRET", "")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: s\ndatabase:\n  driver: sqlite\n")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=n sslmode=disable", c.DSN())
}
