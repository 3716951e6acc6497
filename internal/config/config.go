package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Redis    RedisConfig
	Storage  StorageConfig
	SMTP     SMTPConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"cafeteria_payroll"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string        `envconfig:"JWT_SECRET_KEY"`
	AccessExpiration time.Duration `envconfig:"JWT_ACCESS_EXPIRATION_TIME" default:"12h"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int      `envconfig:"APP_PORT" default:"8080"`
	Env            string   `envconfig:"APP_ENV" default:"development"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	Version        string   `envconfig:"APP_VERSION" default:"dev"`
	StorageDriver  string   `envconfig:"STORAGE_DRIVER" default:"postgres"`
	AllowedOrigins []string `envconfig:"APP_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	AdminEmail     string   `envconfig:"APP_ADMIN_EMAIL"`
	AdminPassword  string   `envconfig:"APP_ADMIN_PASSWORD"`
}

// RedisConfig is optional; an empty address disables the summary cache and
// the task queue.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"10m"`
}

type StorageConfig struct {
	BasePath string `envconfig:"STORAGE_BASE_PATH" default:"./uploads"`
	BaseURL  string `envconfig:"STORAGE_BASE_URL" default:"/uploads"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:"127.0.0.1"`
	Port     int    `envconfig:"SMTP_PORT" default:"1025"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"SMTP_FROM" default:"no-reply@cafeteria.local"`
	FromName string `envconfig:"SMTP_FROM_NAME" default:"Cafeteria Payroll"`
}

type PayrollConfig struct {
	Timezone               string `envconfig:"PAYROLL_TIMEZONE" default:"UTC"`
	NotificationRetainDays int    `envconfig:"PAYROLL_NOTIFICATION_RETAIN_DAYS" default:"90"`
	HistoryMonths          int    `envconfig:"PAYROLL_HISTORY_MONTHS" default:"12"`
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set by the container.
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	config := &Config{}
	// Each section carries its full variable names, so none gets a prefix.
	sections := []interface{}{
		&config.Database, &config.JWT, &config.App, &config.Redis,
		&config.Storage, &config.SMTP, &config.Payroll,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	switch c.App.StorageDriver {
	case "postgres":
		if c.Database.Password == "" {
			return errors.New("DB_PASSWORD is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", c.App.StorageDriver)
	}
	if _, err := time.LoadLocation(c.Payroll.Timezone); err != nil {
		return fmt.Errorf("invalid PAYROLL_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the payroll time zone; Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Payroll.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c != nil && c.App.Env == "production"
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
