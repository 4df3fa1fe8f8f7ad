// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration of both the API server and the terminal client.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	App      AppConfig
	Client   ClientConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects the gorm driver and holds its connection settings.
type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	SQLitePath string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
}

// AuthConfig holds token and bootstrap-admin settings.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	ScanTokenTTL  time.Duration
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev               bool
	Migrations        bool
	SeedDemo          bool
	LogLevel          string
	LowStockThreshold int
}

// ClientConfig is read by the scanpos terminal front-end.
type ClientConfig struct {
	APIURL          string
	ScanBaseURL     string
	CredentialsPath string
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	ScanCooldown    time.Duration
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "scanpos.db"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "scanpos"),
			Password:   getEnv("DB_PASSWORD", "scanpos123"),
			DBName:     getEnv("DB_NAME", "scanpos"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "dev-jwt-secret-change-me"),
			TokenTTL:      getEnvDuration("JWT_TTL", 2*time.Hour),
			ScanTokenTTL:  getEnvDuration("SCAN_TOKEN_TTL", 30*time.Minute),
			AdminName:     getEnv("ADMIN_NAME", "Administrator"),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@scanpos.com"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		App: AppConfig{
			Dev:               getEnvBool("DEV", true),
			Migrations:        getEnvBool("MIGRATIONS", true),
			SeedDemo:          getEnvBool("SEED_DEMO", false),
			LogLevel:          getEnv("LOG_LEVEL", "info"),
			LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),
		},
		Client: ClientConfig{
			APIURL:          getEnv("SCANPOS_API_URL", "http://localhost:8080"),
			ScanBaseURL:     getEnv("SCANPOS_SCAN_URL", "http://localhost:4200"),
			CredentialsPath: getEnv("SCANPOS_CREDENTIALS", defaultCredentialsPath()),
			RequestTimeout:  getEnvDuration("SCANPOS_REQUEST_TIMEOUT", 10*time.Second),
			PollInterval:    getEnvDuration("SCANPOS_POLL_INTERVAL", 2*time.Second),
			ScanCooldown:    getEnvDuration("SCANPOS_SCAN_COOLDOWN", 2*time.Second),
		},
	}
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".scanpos-credentials.json"
	}
	return dir + string(os.PathSeparator) + "scanpos" + string(os.PathSeparator) + "credentials.json"
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration parses Go duration syntax ("2s", "90m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
