package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"matchkeys/ingestion/internal/models"
	"matchkeys/ingestion/internal/repository"
	"matchkeys/ingestion/internal/session"
)

// ErrMissingWarehouseCredentials is returned by warehouse commands when the
// connection cannot be attempted.
var ErrMissingWarehouseCredentials = errors.New("missing warehouse credentials")

// Config holds all application configuration
type Config struct {
	// BetsAPI
	BetsAPIBaseURL    string        `envconfig:"BETSAPI_BASE_URL" default:"https://api.b365api.com"`
	BetsAPIToken      string        `envconfig:"BETSAPI_TOKEN" default:""`
	BetsAPITimeout    time.Duration `envconfig:"BETSAPI_TIMEOUT" default:"40s"`
	BetsAPIRateLimit  float64       `envconfig:"BETSAPI_RATE_LIMIT" default:"1"`
	BetsAPIBurstLimit int           `envconfig:"BETSAPI_BURST_LIMIT" default:"1"`
	MaxPagesPerDay    int           `envconfig:"MAX_PAGES_PER_DAY" default:"20"`
	DefaultSportID    int           `envconfig:"DEFAULT_SPORT_ID" default:"13"`
	DefaultTimezone   string        `envconfig:"DEFAULT_TIMEZONE" default:"America/Monterrey"`

	// Warehouse (Postgres)
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"tennis_db"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:""`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseRole     string `envconfig:"DATABASE_ROLE" default:""`
	DatabaseSchema   string `envconfig:"DATABASE_SCHEMA" default:"raw"`
	DatabaseTable    string `envconfig:"DATABASE_TABLE" default:"raw_tennis_match_keys"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis (session buffer)
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	// Secrets
	SecretsDir string `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Worker
	SyncCron            string `envconfig:"SYNC_CRON" default:"0 */6 * * *"`
	SyncScope           string `envconfig:"SYNC_SCOPE" default:"upcoming"`
	SyncStartOffsetDays int    `envconfig:"SYNC_START_OFFSET_DAYS" default:"0"`
	SyncEndOffsetDays   int    `envconfig:"SYNC_END_OFFSET_DAYS" default:"1"`
	InitialSyncEnabled  bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	MetricsPort         int    `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	cfg.applySecrets()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applySecrets overrides credentials with mounted secret files.
func (c *Config) applySecrets() {
	for name, field := range map[string]*string{
		"BETSAPI_TOKEN":     &c.BetsAPIToken,
		"DATABASE_USER":     &c.DatabaseUser,
		"DATABASE_PASSWORD": &c.DatabasePassword,
		"REDIS_PASSWORD":    &c.RedisPassword,
	} {
		*field = lookupIn(c.SecretsDir, name, *field)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxPagesPerDay < 1 {
		return fmt.Errorf("MAX_PAGES_PER_DAY must be at least 1")
	}

	if c.DefaultSportID < 1 || c.DefaultSportID > 999 {
		return fmt.Errorf("DEFAULT_SPORT_ID must be between 1 and 999")
	}

	if c.BetsAPIRateLimit < 0 {
		return fmt.Errorf("BETSAPI_RATE_LIMIT must not be negative")
	}

	if _, err := models.ParseScope(c.SyncScope); err != nil {
		return fmt.Errorf("SYNC_SCOPE: %w", err)
	}

	if c.SyncEndOffsetDays < c.SyncStartOffsetDays {
		return fmt.Errorf("SYNC_END_OFFSET_DAYS must not be before SYNC_START_OFFSET_DAYS")
	}

	return nil
}

// ValidateWarehouse checks the settings a warehouse connection needs.
func (c *Config) ValidateWarehouse() error {
	var missing []string
	if c.DatabaseHost == "" {
		missing = append(missing, "DATABASE_HOST")
	}
	if c.DatabaseUser == "" {
		missing = append(missing, "DATABASE_USER")
	}
	if c.DatabasePassword == "" {
		missing = append(missing, "DATABASE_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingWarehouseCredentials, missing)
	}
	return nil
}

// DatabaseConfig returns the repository connection settings
func (c *Config) DatabaseConfig() repository.Config {
	return repository.Config{
		Host:     c.DatabaseHost,
		Port:     strconv.Itoa(c.DatabasePort),
		User:     c.DatabaseUser,
		Password: c.DatabasePassword,
		Database: c.DatabaseName,
		SSLMode:  c.DatabaseSSLMode,
		Role:     c.DatabaseRole,
		Schema:   c.DatabaseSchema,
		Table:    c.DatabaseTable,
	}
}

// RedisConfig returns the session store connection settings
func (c *Config) RedisConfig() session.RedisConfig {
	return session.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		TTL:      c.SessionTTL,
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
