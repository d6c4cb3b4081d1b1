package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const minSecretLength = 32

// Revocation backends supported by AUTH_REVOCATION_BACKEND.
const (
	RevocationBackendMemory = "memory"
	RevocationBackendRedis  = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	OIDC     OIDCConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" env-default:"college-marketplace"`
	Env                   string `env:"APP_ENV" env-default:"development"`
	Host                  string `env:"APP_HOST" env-default:"0.0.0.0"`
	Port                  string `env:"APP_PORT" env-default:"8080"`
	Version               string `env:"APP_VERSION" env-default:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" env-default:"30"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" env-default:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" env-default:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" env-default:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" env-default:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" env-default:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
}

// AuthConfig defines authentication parameters. The signing secret has no
// default and must be supplied by the environment.
type AuthConfig struct {
	JWTSecret         string        `env:"AUTH_JWT_SECRET" env-required:"true"`
	AccessTokenTTL    time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL   time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" env-default:"720h"`
	BcryptCost        int           `env:"AUTH_BCRYPT_COST" env-default:"12"`
	RevocationBackend string        `env:"AUTH_REVOCATION_BACKEND" env-default:"memory"`
	PurgeInterval     time.Duration `env:"AUTH_PURGE_INTERVAL" env-default:"1m"`

	// BootstrapAdminEmail is promoted to ADMIN at startup, or created with
	// BootstrapAdminPassword when missing. Empty disables the bootstrap.
	BootstrapAdminEmail    string `env:"AUTH_BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"AUTH_BOOTSTRAP_ADMIN_PASSWORD"`
}

// OIDCConfig configures federated sign-in. An empty ClientID disables it.
type OIDCConfig struct {
	IssuerURL string `env:"OIDC_ISSUER_URL" env-default:"https://accounts.google.com"`
	JWKSURL   string `env:"OIDC_JWKS_URL" env-default:"https://www.googleapis.com/oauth2/v3/certs"`
	ClientID  string `env:"OIDC_CLIENT_ID"`
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return errors.New("AUTH_ACCESS_TOKEN_TTL must be positive")
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return errors.New("AUTH_REFRESH_TOKEN_TTL must be longer than AUTH_ACCESS_TOKEN_TTL")
	}
	switch c.Auth.RevocationBackend {
	case RevocationBackendMemory, RevocationBackendRedis:
	default:
		return fmt.Errorf("unknown AUTH_REVOCATION_BACKEND %q", c.Auth.RevocationBackend)
	}
	if c.Auth.PurgeInterval <= 0 {
		return errors.New("AUTH_PURGE_INTERVAL must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// FederatedEnabled reports whether third-party sign-in is configured.
func (o OIDCConfig) FederatedEnabled() bool {
	return o.ClientID != ""
}
