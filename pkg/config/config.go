package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kasirpos/kasir-terminal/pkg/enums"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Session  SessionConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
	CORS     CORSConfig
	JWT      JWTConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules envconfig tags cannot express.
func (c *Config) Validate() error {
	var errs error
	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%s must be an absolute url: %w", EnvBackendBaseURL, err))
	}
	if c.Backend.Timeout <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvBackendTimeout))
	}
	kind, err := enums.ParseSessionStoreKind(strings.ToLower(strings.TrimSpace(c.Session.Store)))
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", EnvSessionStore, err))
	}
	if kind == enums.SessionStoreRedis && c.Redis.URL == "" && c.Redis.Address == "" {
		errs = multierr.Append(errs, fmt.Errorf("%s or %s is required when %s=redis", EnvRedisURL, EnvRedisAddr, EnvSessionStore))
	}
	if c.Session.TTL <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvSessionTTL))
	}
	if c.App.IsProd() && !c.JWT.Verifies() {
		errs = multierr.Append(errs, fmt.Errorf("%s is required when %s=%s", EnvJWTSecret, EnvAppEnv, AppEnvProd))
	}
	if c.Checkout.InFlightTTL <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be positive", EnvCheckoutInFlightTTL))
	}
	// both flags must outlive the backend call they protect
	if c.Backend.Timeout > 0 && c.Checkout.InFlightTTL > 0 && c.Checkout.InFlightTTL <= c.Backend.Timeout {
		errs = multierr.Append(errs, fmt.Errorf("%s (%s) must be longer than %s (%s)",
			EnvCheckoutInFlightTTL, c.Checkout.InFlightTTL, EnvBackendTimeout, c.Backend.Timeout))
	}
	if c.Backend.Timeout > 0 && c.Session.LockTTL > 0 && c.Session.LockTTL <= c.Backend.Timeout {
		errs = multierr.Append(errs, fmt.Errorf("%s (%s) must be longer than %s (%s)",
			EnvSessionLockTTL, c.Session.LockTTL, EnvBackendTimeout, c.Backend.Timeout))
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"KASIR_APP_ENV" required:"true"`
	Port         string `envconfig:"KASIR_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"KASIR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KASIR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	env := strings.TrimSpace(a.Env)
	return strings.EqualFold(env, AppEnvProd) || strings.EqualFold(env, "production")
}

// BackendConfig points at the Kasir REST backend every mutation is forwarded to.
type BackendConfig struct {
	BaseURL            string        `envconfig:"KASIR_BACKEND_BASE_URL" required:"true"`
	Timeout            time.Duration `envconfig:"KASIR_BACKEND_TIMEOUT" default:"10s"`
	BreakerMaxFailures uint32        `envconfig:"KASIR_BACKEND_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"KASIR_BACKEND_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

type SessionConfig struct {
	Store         string        `envconfig:"KASIR_SESSION_STORE" default:"memory"`
	TTL           time.Duration `envconfig:"KASIR_SESSION_TTL" default:"12h"`
	// SweepInterval paces eviction of expired in-memory carts.
	SweepInterval time.Duration `envconfig:"KASIR_SESSION_SWEEP_INTERVAL" default:"5m"`
	// LockTTL and LockWait tune the cross-instance cart lock of the redis store.
	LockTTL       time.Duration `envconfig:"KASIR_SESSION_LOCK_TTL" default:"1m"`
	LockWait      time.Duration `envconfig:"KASIR_SESSION_LOCK_WAIT" default:"5s"`
}

// StoreKind returns the normalized session store kind.
func (s SessionConfig) StoreKind() enums.SessionStoreKind {
	kind, err := enums.ParseSessionStoreKind(strings.ToLower(strings.TrimSpace(s.Store)))
	if err != nil {
		return enums.SessionStoreMemory
	}
	return kind
}

type RedisConfig struct {
	URL          string        `envconfig:"KASIR_REDIS_URL"`
	Address      string        `envconfig:"KASIR_REDIS_ADDR"`
	Password     string        `envconfig:"KASIR_REDIS_PASSWORD"`
	DB           int           `envconfig:"KASIR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KASIR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KASIR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KASIR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KASIR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KASIR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CheckoutConfig struct {
	// InFlightTTL bounds how long a crashed submission can hold the guard.
	InFlightTTL time.Duration `envconfig:"KASIR_CHECKOUT_INFLIGHT_TTL" default:"30s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"KASIR_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// JWTConfig controls how cashier bearer tokens are read. Without a secret the
// claims are decoded but not verified; sessions are then keyed on the raw
// credential and the backend stays the authority on every forwarded call.
type JWTConfig struct {
	Secret string `envconfig:"KASIR_JWT_SECRET"`
	Issuer string `envconfig:"KASIR_JWT_ISSUER"`
}

// Verifies reports whether tokens are signature-checked locally.
func (j JWTConfig) Verifies() bool {
	return strings.TrimSpace(j.Secret) != ""
}
