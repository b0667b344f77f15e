package config

import (
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
	Admin    AdminConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines account and session parameters.
type AuthConfig struct {
	JWTSecret               string
	SessionTTLMinutes       int
	SessionCookieName       string
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// AdminConfig defines the admin gate: the single privileged identity, paths, cookies and TTLs.
type AdminConfig struct {
	// Identity is stored trimmed and lower-cased, the form account emails are stored in.
	Identity string
	// InitialPassword provisions the privileged account at startup when it does not exist.
	// The identity cannot be claimed through public registration.
	InitialPassword          string
	Path                     string
	LoginPath                string
	PublicPaths              []string
	TokenCookieName          string
	TokenTTLSeconds          int
	EmergencyCookieName      string
	EmergencySecret          string
	EmergencyUserAgentMarker string
	EmergencyTTLSeconds      int
	SessionLookupTimeoutMS   int
}

var defaultPublicPaths = []string{"/", "/login", "/register", "/forgot-password", "/reset-password", "/api", "/admin"}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "admin-gateway"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			SessionTTLMinutes:       getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 60*24),
			SessionCookieName:       getEnv("AUTH_SESSION_COOKIE", "sid"),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Admin: AdminConfig{
			Identity:                 strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_IDENTITY"))),
			InitialPassword:          os.Getenv("ADMIN_INITIAL_PASSWORD"),
			Path:                     getEnv("ADMIN_PATH", "/admin"),
			LoginPath:                getEnv("ADMIN_APP_LOGIN_PATH", "/login"),
			PublicPaths:              getEnvAsList("ADMIN_PUBLIC_PATHS", defaultPublicPaths),
			TokenCookieName:          getEnv("ADMIN_TOKEN_COOKIE", "admin_token"),
			TokenTTLSeconds:          getEnvAsInt("ADMIN_TOKEN_TTL_SECONDS", 3600),
			EmergencyCookieName:      getEnv("ADMIN_EMERGENCY_COOKIE", "admin_emergency"),
			EmergencySecret:          os.Getenv("ADMIN_EMERGENCY_SECRET"),
			EmergencyUserAgentMarker: os.Getenv("ADMIN_EMERGENCY_UA_MARKER"),
			EmergencyTTLSeconds:      getEnvAsInt("ADMIN_EMERGENCY_TTL_SECONDS", 300),
			SessionLookupTimeoutMS:   getEnvAsInt("ADMIN_SESSION_LOOKUP_TIMEOUT_MS", 2000),
		},
	}

	return cfg, nil
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

// IsProduction reports whether the service runs in production.
func (a AppConfig) IsProduction() bool {
	env := strings.ToLower(a.Env)
	return env == "production" || env == "prod"
}

// SessionTTL returns the lifetime of an application session.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// PasswordResetTTL returns the lifetime of a password reset token.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	if a.PasswordResetTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// TokenTTL returns the admin token cookie lifetime.
func (a AdminConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLSeconds) * time.Second
}

// EmergencyTTL returns the emergency cookie lifetime.
func (a AdminConfig) EmergencyTTL() time.Duration {
	return time.Duration(a.EmergencyTTLSeconds) * time.Second
}

// SessionLookupTimeout bounds a single session provider call.
func (a AdminConfig) SessionLookupTimeout() time.Duration {
	if a.SessionLookupTimeoutMS <= 0 {
		return 0
	}
	return time.Duration(a.SessionLookupTimeoutMS) * time.Millisecond
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

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
