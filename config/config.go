package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server       ServerConfig
	Store        StoreConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	SQLite       SQLiteConfig
	Registration RegistrationConfig
	AWS          AWSConfig
	Delivery     DeliveryConfig
	Links        LinksConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:5173,http://localhost:3000)
	Env                string // NODE_ENV; reported by /api/debug
	EnableOTPStub      bool
}

// StoreConfig selects the registration store backend.
type StoreConfig struct {
	Driver string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string // e.g. postgres://localhost:5432/yogacamp?sslmode=disable
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SQLiteConfig holds the SQLite database file path.
type SQLiteConfig struct {
	Path string
}

// RegistrationConfig controls which contact field is the uniqueness key and
// which fields are mandatory for this deployment.
type RegistrationConfig struct {
	ContactField string // "email" or "phone"
	RequireEmail bool
	RequirePhone bool
	PhoneDigits  int
}

// AWSConfig holds AWS credentials and the archive bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ArchiveBucket   string
}

// DeliveryConfig configures the client-side delivery sinks.
type DeliveryConfig struct {
	EndpointURL    string
	WebhookURL     string
	WebhookSecret  string
	SinkTimeoutSec int
}

// LinksConfig holds the post-registration call-to-action links.
type LinksConfig struct {
	ChatGroupURL   string
	AppDownloadURL string
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "5000"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 15),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 15),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"),
			Env:                getEnv("NODE_ENV", "development"),
			EnableOTPStub:      getEnvBool("ENABLE_OTP_STUB", false),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		SQLite: SQLiteConfig{
			Path: os.Getenv("SQLITE_PATH"),
		},
		Registration: RegistrationConfig{
			ContactField: strings.ToLower(getEnv("CONTACT_FIELD", "email")),
			RequireEmail: getEnvBool("REQUIRE_EMAIL", true),
			RequirePhone: getEnvBool("REQUIRE_PHONE", false),
			PhoneDigits:  getEnvInt("PHONE_DIGITS", 10),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ArchiveBucket:   getEnv("ARCHIVE_BUCKET", ""),
		},
		Delivery: DeliveryConfig{
			EndpointURL:    getEnv("REGISTER_ENDPOINT_URL", "http://localhost:5000/api/register"),
			WebhookURL:     getEnv("WEBHOOK_URL", ""),
			WebhookSecret:  getEnv("WEBHOOK_SIGNING_SECRET", ""),
			SinkTimeoutSec: getEnvInt("SINK_TIMEOUT_SEC", 15),
		},
		Links: LinksConfig{
			ChatGroupURL:   getEnv("CHAT_GROUP_URL", "https://chat.whatsapp.com/CxkVX14yHcrLRpMoDVftMN"),
			AppDownloadURL: getEnv("APP_DOWNLOAD_URL", "http://svastha.fit/download"),
		},
	}
	return cfg, nil
}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis store"))
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	switch c.Registration.ContactField {
	case "email", "phone":
	default:
		errs = append(errs, fmt.Errorf("CONTACT_FIELD must be email or phone, got %q", c.Registration.ContactField))
	}
	if c.Registration.PhoneDigits < 1 {
		errs = append(errs, errors.New("PHONE_DIGITS must be positive"))
	}
	return errors.Join(errs...)
}

// StoreConfigured reports whether the connection value for the selected driver is present.
func (c *Config) StoreConfigured() bool {
	switch c.Store.Driver {
	case DriverPostgres:
		return c.Database.URL != ""
	case DriverRedis:
		return c.Redis.Addr != ""
	case DriverSQLite:
		return c.SQLite.Path != ""
	}
	return c.Store.Driver == DriverMemory
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
