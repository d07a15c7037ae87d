package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Identity IdentityConfig
	Events   EventsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSAllowedOrigins    []string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
	ConnectAttempts int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr                string
	Password            string
	DB                  int
	PoolSize            int
	UserCacheTTLSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines parameters for locally issued tokens.
type AuthConfig struct {
	JWTSecret             string
	Issuer                string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	BcryptCost            int
}

// IdentityProvider selects how externally issued identity tokens are verified.
type IdentityProvider string

const (
	IdentityProviderFirebase IdentityProvider = "firebase"
	IdentityProviderJWKS     IdentityProvider = "jwks"
	IdentityProviderNone     IdentityProvider = "none"
)

// IdentityConfig configures the identity-token verifier.
type IdentityConfig struct {
	Provider               IdentityProvider
	CredentialsPath        string
	ProjectID              string
	Issuer                 string
	Audience               string
	JWKSURL                string
	VerifyTimeoutSeconds   int
	PlaceholderEmailDomain string
}

// EventsConfig configures the optional AMQP forwarder for domain events.
type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "mutooni-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSAllowedOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:                getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:            os.Getenv("REDIS_PASSWORD"),
			DB:                  redisDB,
			UserCacheTTLSeconds: getEnvAsInt("REDIS_USER_CACHE_TTL_SECONDS", 300),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("SECRET_KEY"),
			Issuer:                getEnv("AUTH_JWT_ISSUER", "mutooni-api"),
			AccessTokenTTLMinutes: getEnvAsInt("JWT_MINUTES", 30),
			RefreshTokenTTLDays:   getEnvAsInt("JWT_DAYS", 7),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Identity: IdentityConfig{
			Provider:               IdentityProvider(strings.ToLower(getEnv("IDENTITY_PROVIDER", string(IdentityProviderFirebase)))),
			CredentialsPath:        os.Getenv("FIREBASE_CREDENTIALS"),
			ProjectID:              os.Getenv("FIREBASE_PROJECT_ID"),
			Issuer:                 os.Getenv("IDENTITY_ISSUER"),
			Audience:               os.Getenv("IDENTITY_AUDIENCE"),
			JWKSURL:                os.Getenv("IDENTITY_JWKS_URL"),
			VerifyTimeoutSeconds:   getEnvAsInt("IDENTITY_VERIFY_TIMEOUT_SECONDS", 5),
			PlaceholderEmailDomain: getEnv("IDENTITY_PLACEHOLDER_EMAIL_DOMAIN", "firebase.local"),
		},
		Events: EventsConfig{
			AMQPURL:  os.Getenv("EVENTS_AMQP_URL"),
			Exchange: getEnv("EVENTS_AMQP_EXCHANGE", "mutooni.events"),
		},
	}

	if cfg.Auth.JWTSecret == "" && !cfg.App.IsProduction() {
		cfg.Auth.JWTSecret = "dev-secret"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("SECRET_KEY is required in production")
	}
	switch c.Identity.Provider {
	case IdentityProviderFirebase, IdentityProviderNone:
	case IdentityProviderJWKS:
		if c.Identity.JWKSURL == "" || c.Identity.Issuer == "" {
			return errors.New("IDENTITY_JWKS_URL and IDENTITY_ISSUER are required for the jwks provider")
		}
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.Identity.Provider)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return a.Env == "prod" || a.Env == "production"
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// UserCacheTTL returns how long resolved users stay cached in Redis.
func (r RedisConfig) UserCacheTTL() time.Duration {
	if r.UserCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.UserCacheTTLSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of access tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the lifetime of refresh tokens.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLDays) * 24 * time.Hour
}

// VerifyTimeout bounds a single identity-token verification.
func (i IdentityConfig) VerifyTimeout() time.Duration {
	if i.VerifyTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(i.VerifyTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
