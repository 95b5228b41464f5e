package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings read from the environment
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string
	CORSOrigins []string

	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	S3       S3Config
	Tracing  TracingConfig

	RateLimit           int
	RateLimitWindow     time.Duration
	NotificationWorkers int
	NotificationBuffer  int
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns DATABASE_URL when set, otherwise a DSN built from the discrete fields
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether a redis host was configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type S3Config struct {
	Region  string
	Bucket  string
	BaseURL string
}

func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

type TracingConfig struct {
	Enabled      bool
	Endpoint     string
	SamplingRate float64
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8787"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", "carecircle.log"),
		CORSOrigins: getList("CORS_ORIGINS", []string{"*"}),
		Database:    databaseFromEnv(),
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			AccessTTL:  getDuration("JWT_ACCESS_TTL", 24*time.Hour),
			RefreshTTL: getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		S3: S3Config{
			Region:  getEnv("AWS_REGION", "us-east-1"),
			Bucket:  os.Getenv("S3_BUCKET"),
			BaseURL: os.Getenv("S3_BASE_URL"),
		},
		Tracing: TracingConfig{
			Enabled:      getBool("OTEL_ENABLED", false),
			Endpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SamplingRate: getFloat("OTEL_SAMPLING_RATE", 1.0),
		},
		RateLimit:           getInt("RATE_LIMIT", 100),
		RateLimitWindow:     getDuration("RATE_LIMIT_WINDOW", time.Minute),
		NotificationWorkers: getInt("NOTIFICATION_WORKERS", 4),
		NotificationBuffer:  getInt("NOTIFICATION_BUFFER", 256),
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings, for tools that never serve
// requests and so have no JWT secret
func LoadDatabase() DatabaseConfig {
	_ = godotenv.Load()
	return databaseFromEnv()
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     getEnv("DB_NAME", "carecircle"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// IsDevelopment controls whether internal error details reach clients
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
