package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CLINIC_JWT_SECRET.
const EnvPrefix = "CLINIC"

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Password  PasswordConfig  `mapstructure:"password"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" split_words:"true"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	Mode           string `mapstructure:"mode"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" split_words:"true"`
	MaxBodyBytes   int64  `mapstructure:"max_body_bytes" split_words:"true"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_minutes" split_words:"true"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours" split_words:"true"`
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type PasswordConfig struct {
	MinLength     int  `mapstructure:"min_length" split_words:"true"`
	RequireLower  bool `mapstructure:"require_lower" split_words:"true"`
	RequireUpper  bool `mapstructure:"require_upper" split_words:"true"`
	RequireDigit  bool `mapstructure:"require_digit" split_words:"true"`
	RequireSymbol bool `mapstructure:"require_symbol" split_words:"true"`
	BcryptCost    int  `mapstructure:"bcrypt_cost" split_words:"true"`
}

type AuthConfig struct {
	MaxLoginAttempts int `mapstructure:"max_login_attempts" split_words:"true"`
	LockoutMinutes   int `mapstructure:"lockout_minutes" split_words:"true"`
}

func (c AuthConfig) LockoutWindow() time.Duration {
	return time.Duration(c.LockoutMinutes) * time.Minute
}

type RedisConfig struct {
	// URL empty disables login throttling.
	URL string `mapstructure:"url"`
}

type SMTPConfig struct {
	// Host empty disables outgoing mail.
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type BootstrapConfig struct {
	AdminUsername string `mapstructure:"admin_username" split_words:"true"`
	AdminEmail    string `mapstructure:"admin_email" split_words:"true"`
	AdminPassword string `mapstructure:"admin_password" split_words:"true"`
	AdminFullName string `mapstructure:"admin_full_name" split_words:"true"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 30)

	v.SetDefault("jwt.issuer", "clinic-rbac")
	v.SetDefault("jwt.expiry_hours", 24)

	v.SetDefault("password.min_length", 8)
	v.SetDefault("password.require_lower", true)
	v.SetDefault("password.require_digit", true)
	v.SetDefault("password.bcrypt_cost", 10)

	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.lockout_minutes", 15)

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@clinic.local")

	v.SetDefault("bootstrap.admin_full_name", "System Administrator")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "clinic")
}

// LoadConfig reads path, or config.yaml from the usual locations when path is
// empty, then applies CLINIC_* environment overrides. A missing default config
// file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("jwt.secret is required (or CLINIC_JWT_SECRET)")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Bootstrap.AdminUsername != "" && c.Bootstrap.AdminPassword == "" {
		return errors.New("bootstrap.admin_password is required when bootstrap.admin_username is set")
	}
	return nil
}
