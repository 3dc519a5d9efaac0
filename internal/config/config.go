package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// JWT (staff sessions)
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Realtime fan-out. Empty means in-process only.
	RedisURL     string
	EventChannel string

	// Evidence storage
	BlobRoot          string
	BlobPublicBaseURL string
	MaxUploadBytes    int64

	// Workflow: "permissive" or "strict"
	WorkflowMode string

	// Server
	AppName        string
	Port           string
	CORSOrigins    string
	TrackRateLimit int

	// Observability
	LogRetentionDays int
	SentryDSN        string
	AppEnv           string
}

func Load() *Config {
	return &Config{
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "safevoice"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		RedisURL:     getEnv("REDIS_URL", ""),
		EventChannel: getEnv("EVENT_CHANNEL", "safevoice:complaints"),

		BlobRoot:          getEnv("BLOB_ROOT", "./data/proof"),
		BlobPublicBaseURL: getEnv("BLOB_PUBLIC_BASE_URL", ""),
		MaxUploadBytes:    int64(parseInt(getEnv("MAX_UPLOAD_BYTES", "5242880"), 5*1024*1024)),

		WorkflowMode: strings.ToLower(getEnv("WORKFLOW_MODE", "permissive")),

		AppName:        getEnv("APP_NAME", "SafeVoice"),
		Port:           getEnv("PORT", "8080"),
		CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
		TrackRateLimit: parseInt(getEnv("TRACK_RATE_LIMIT", "20"), 20),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AppEnv:           getEnv("APP_ENV", "development"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// UsesMemoryStore reports whether records live only in process memory.
func (c *Config) UsesMemoryStore() bool {
	return c.StoreDriver == "memory"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
