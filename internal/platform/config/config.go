package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	strutil "onboarding/pkg/platform/strings"
)

// Config is the full process configuration, assembled once in main.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	KYC       KYCConfig
	RateLimit RateLimitConfig
}

// Server captures HTTP server level configuration. WriteTimeout has to cover
// a full multipart upload plus the object store round trip.
type Server struct {
	Addr              string
	LogLevel          string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DatabaseConfig configures the Postgres pool. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig configures the optional Redis client used by the rate limiter.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StorageConfig selects the KYC object store. An empty bucket selects the in-memory gateway.
type StorageConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

// KYCConfig holds document admission and retrieval policy.
type KYCConfig struct {
	MaxUploadBytes int64
	SignedURLTTL   time.Duration
	AllowedMIME    []string
}

// RateLimitConfig configures per-client-IP request throttling.
type RateLimitConfig struct {
	Disabled       bool
	Requests       int
	UploadRequests int
	Window         time.Duration
}

// DefaultSignedURLTTL is the validity window of KYC download URLs.
const DefaultSignedURLTTL = 300 * time.Second

// DefaultMaxUploadBytes caps a single KYC document upload.
const DefaultMaxUploadBytes int64 = 5 << 20

// FromEnv builds a Config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present.
func FromEnv() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	return Config{
		Server: Server{
			Addr:              getEnv("APP_ADDR", ":3000"),
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			ReadHeaderTimeout: getEnvDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("GCS_BUCKET"),
			ProjectID:       os.Getenv("GOOGLE_CLOUD_PROJECT"),
			CredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		},
		KYC: KYCConfig{
			MaxUploadBytes: int64(getEnvInt("KYC_MAX_UPLOAD_BYTES", int(DefaultMaxUploadBytes))),
			SignedURLTTL:   getEnvDuration("KYC_SIGNED_URL_TTL", DefaultSignedURLTTL),
			AllowedMIME:    strutil.DedupeAndTrimLower(getEnvList("KYC_ALLOWED_MIME", []string{"application/pdf", "image/jpeg", "image/png"})),
		},
		RateLimit: RateLimitConfig{
			Disabled:       getEnvBool("RATE_LIMIT_DISABLED", false),
			Requests:       getEnvInt("RATE_LIMIT_REQUESTS", 60),
			UploadRequests: getEnvInt("RATE_LIMIT_UPLOAD_REQUESTS", 10),
			Window:         getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer env var, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid boolean env var, using default", "key", key, "value", value)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration env var, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	out := strutil.SplitList(os.Getenv(key))
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
