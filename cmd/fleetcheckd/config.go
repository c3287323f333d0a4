package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Host        string
	Port        int
	Environment string
	LogLevel    string

	// Database settings
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Storage settings
	StorageProvider  string
	StorageLocalPath string
	StorageLocalURL  string
	StorageS3Bucket  string
	StorageS3Region  string
	StorageS3BaseURL string

	// Report settings
	ReportLocale       string
	ReportTimeout      time.Duration
	ReportBatchDelay   time.Duration
	ReportImageTimeout time.Duration
	CategoryTablePath  string
	CategoryCacheTTL   time.Duration

	// Rate limiting of report endpoints, per profile.
	ReportRatePerMinute float64
	ReportRateBurst     int

	// Background regeneration queue. Zero workers disables it.
	QueueWorkerCount      int
	QueuePollInterval     time.Duration
	QueueJobTimeout       time.Duration
	QueueMaxAttempts      int
	QueueRetryBackoff     time.Duration
	QueueCleanupRetention time.Duration
}

// LoadConfig loads configuration from environment variables. Values in the
// file named by ENV_FILE (default .env) fill in anything the environment
// leaves unset; a missing file is not an error.
func LoadConfig(getenv func(string) string) (*Config, error) {
	getenv, err := withEnvFile(getenv)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// Server settings
		Host:        envString(getenv, "SERVER_HOST", "localhost"),
		Port:        envInt(getenv, "SERVER_PORT", 8080),
		Environment: envString(getenv, "ENVIRONMENT", "dev"),
		LogLevel:    envString(getenv, "LOG_LEVEL", "info"),

		// Database settings
		DBUser:     envString(getenv, "DB_USER", "postgres"),
		DBPassword: envString(getenv, "DB_PASSWORD", ""),
		DBHost:     envString(getenv, "DB_HOSTNAME", "localhost"),
		DBPort:     envString(getenv, "DB_PORT", "5432"),
		DBName:     envString(getenv, "DB_NAME", "fleetcheck"),

		// Storage settings
		StorageProvider:  envString(getenv, "STORAGE_PROVIDER", "local"),
		StorageLocalPath: envString(getenv, "STORAGE_LOCAL_PATH", "./uploads"),
		StorageLocalURL:  envString(getenv, "STORAGE_LOCAL_URL", "http://localhost:8080/uploads"),
		StorageS3Bucket:  envString(getenv, "STORAGE_S3_BUCKET", ""),
		StorageS3Region:  envString(getenv, "STORAGE_S3_REGION", "us-east-1"),
		StorageS3BaseURL: envString(getenv, "STORAGE_S3_BASE_URL", ""),

		// Report settings
		ReportLocale:       envString(getenv, "REPORT_LOCALE", "pt-BR"),
		ReportTimeout:      envDuration(getenv, "REPORT_TIMEOUT", 60*time.Second),
		ReportBatchDelay:   envDuration(getenv, "REPORT_BATCH_DELAY", 500*time.Millisecond),
		ReportImageTimeout: envDuration(getenv, "REPORT_IMAGE_TIMEOUT", 15*time.Second),
		CategoryTablePath:  envString(getenv, "CATEGORY_TABLE_PATH", ""),
		CategoryCacheTTL:   envDuration(getenv, "CATEGORY_CACHE_TTL", 10*time.Minute),

		ReportRatePerMinute: envFloat(getenv, "REPORT_RATE_PER_MINUTE", 10),
		ReportRateBurst:     envInt(getenv, "REPORT_RATE_BURST", 5),

		QueueWorkerCount:      envInt(getenv, "QUEUE_WORKER_COUNT", 2),
		QueuePollInterval:     envDuration(getenv, "QUEUE_POLL_INTERVAL", time.Second),
		QueueJobTimeout:       envDuration(getenv, "QUEUE_JOB_TIMEOUT", 2*time.Minute),
		QueueMaxAttempts:      envInt(getenv, "QUEUE_MAX_ATTEMPTS", 3),
		QueueRetryBackoff:     envDuration(getenv, "QUEUE_RETRY_BACKOFF", 30*time.Second),
		QueueCleanupRetention: envDuration(getenv, "QUEUE_CLEANUP_RETENTION", 7*24*time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withEnvFile layers the values of an env file under getenv.
func withEnvFile(getenv func(string) string) (func(string) string, error) {
	path := getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return getenv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return values[key]
	}, nil
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

func (c *Config) validate() error {
	switch c.StorageProvider {
	case "local":
	case "s3":
		if c.StorageS3Bucket == "" {
			return fmt.Errorf("STORAGE_S3_BUCKET is required when STORAGE_PROVIDER is s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.StorageProvider)
	}
	if c.ReportRatePerMinute <= 0 || c.ReportRateBurst <= 0 {
		return fmt.Errorf("report rate limit must be positive")
	}
	if c.QueueWorkerCount < 0 || c.QueueMaxAttempts <= 0 {
		return fmt.Errorf("queue workers must be >= 0 and attempts > 0")
	}
	if c.IsProduction() && c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD must be set in production environment")
	}
	return nil
}

// Helper functions for loading environment variables with defaults.

func envString(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func envFloat(getenv func(string) string, key string, defaultValue float64) float64 {
	if value := getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func envDuration(getenv func(string) string, key string, defaultValue time.Duration) time.Duration {
	if value := getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
