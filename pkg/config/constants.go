package config

const (
	EnvPrefix = "KASIR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv              = "KASIR_APP_ENV"
	EnvPort                = "KASIR_APP_PORT"
	EnvLogLevel            = "KASIR_LOG_LEVEL"
	EnvBackendBaseURL      = "KASIR_BACKEND_BASE_URL"
	EnvBackendTimeout      = "KASIR_BACKEND_TIMEOUT"
	EnvSessionStore        = "KASIR_SESSION_STORE"
	EnvSessionTTL          = "KASIR_SESSION_TTL"
	EnvSessionLockTTL      = "KASIR_SESSION_LOCK_TTL"
	EnvRedisURL            = "KASIR_REDIS_URL"
	EnvRedisAddr           = "KASIR_REDIS_ADDR"
	EnvCheckoutInFlightTTL = "KASIR_CHECKOUT_INFLIGHT_TTL"
	EnvCORSAllowedOrigins  = "KASIR_CORS_ALLOWED_ORIGINS"
	EnvJWTSecret           = "KASIR_JWT_SECRET"
)
