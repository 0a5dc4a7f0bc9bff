package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/hostdeck/hostdeck/internal/domain/ledger"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Panel    PanelConfig
	Shop     ShopConfig
	Notify   NotifyConfig
	Worker   WorkerConfig
	Logging  LoggingConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret         string
	AccessTokenExpiry time.Duration
	BCryptCost        int
}

// PanelConfig contains the hosting control plane API configuration
type PanelConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ShopConfig points at the price table and carries the limits seeded into
// every new account
type ShopConfig struct {
	ConfigPath    string
	InitialLimits ledger.Resources
}

// NotifyConfig contains outbound notification configuration
type NotifyConfig struct {
	DiscordWebhookURL string
	Timeout           time.Duration
	MaxAttempts       int
}

// WorkerConfig contains background worker configuration
type WorkerConfig struct {
	ReconcileSchedule  string
	DemoSweepSchedule  string
	PlanExpirySchedule string
	OutboxInterval     time.Duration
	OutboxBatchSize    int
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "hostdeck"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./data.db"),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", "supersecretkey"),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			BCryptCost:        getEnvAsInt("BCRYPT_COST", 12),
		},
		Panel: PanelConfig{
			BaseURL: getEnv("PANEL_API_URL", ""),
			APIKey:  getEnv("PANEL_API_KEY", ""),
			Timeout: getEnvAsDuration("PANEL_API_TIMEOUT", 15*time.Second),
		},
		Shop: ShopConfig{
			ConfigPath: getEnv("SHOP_CONFIG_PATH", "./shop.yaml"),
			InitialLimits: ledger.Resources{
				CPU:         getEnvAsInt64("INITIAL_CPU", 750),
				Memory:      getEnvAsInt64("INITIAL_MEMORY", 1500),
				Disk:        getEnvAsInt64("INITIAL_DISK", 3024),
				Servers:     getEnvAsInt64("INITIAL_SERVERS", 1),
				Databases:   getEnvAsInt64("INITIAL_DATABASES", 0),
				Backups:     getEnvAsInt64("INITIAL_BACKUPS", 0),
				Allocations: getEnvAsInt64("INITIAL_ALLOCATIONS", 2),
			},
		},
		Notify: NotifyConfig{
			DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
			Timeout:           getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
			MaxAttempts:       getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 5),
		},
		Worker: WorkerConfig{
			ReconcileSchedule:  getEnv("RECONCILE_SCHEDULE", "@every 10m"),
			DemoSweepSchedule:  getEnv("DEMO_SWEEP_SCHEDULE", "@every 1h"),
			PlanExpirySchedule: getEnv("PLAN_EXPIRY_SCHEDULE", "@every 1h"),
			OutboxInterval:     getEnvAsDuration("OUTBOX_INTERVAL", 15*time.Second),
			OutboxBatchSize:    getEnvAsInt("OUTBOX_BATCH_SIZE", 50),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "supersecretkey" {
		return fmt.Errorf("JWT_SECRET must be set and should not use default value in production")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Notify.MaxAttempts < 1 {
		return fmt.Errorf("NOTIFY_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
