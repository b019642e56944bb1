package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// MemoryBackend is the sentinel value that selects the in-process store for DATABASE_URL or MINIO_ENDPOINT.
const MemoryBackend = "memory"

// DatabaseConfig holds PostgreSQL database connection settings.
// URL takes precedence over the individual components when set.
type DatabaseConfig struct {
	URL                string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// InMemory reports whether the in-process document store was requested.
func (c DatabaseConfig) InMemory() bool {
	return strings.EqualFold(c.URL, MemoryBackend)
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base used to build public object links. Defaults to scheme://Endpoint.
	PublicURL string
}

// InMemory reports whether the in-process object store was requested.
func (c MinIOConfig) InMemory() bool {
	return strings.EqualFold(c.Endpoint, MemoryBackend)
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	// APIKey is the public API key clients present in the apikey header for admin calls.
	APIKey               string
	ReconcileIntervalSec int
	DownloadTimeoutSec   int
	SeedSampleData       bool
	Database             DatabaseConfig
	MinIO                MinIOConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:              getEnv("APP_HOST", "localhost:8080"),
		Port:                 getEnv("PORT", "8080"),
		Timezone:             getEnv("APP_TIMEZONE", "UTC"),
		APIKey:               getEnv("API_KEY", ""),
		ReconcileIntervalSec: getEnvInt("RECONCILE_INTERVAL_SEC", 0),
		DownloadTimeoutSec:   getEnvInt("DOWNLOAD_TIMEOUT_SEC", 0),
		SeedSampleData:       getEnvBool("SEED_SAMPLE_DATA", false),
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "document-pdfs"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			PublicURL: getEnv("MINIO_PUBLIC_URL", ""),
		},
	}
}

// Validate checks the two values the service cannot start without:
// the remote store endpoint and the public API key.
func (c *AppConfig) Validate() error {
	var errs []error
	db := c.Database
	if db.URL == "" && (db.Host == "" || db.User == "" || db.Name == "") {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required"))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
