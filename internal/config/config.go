package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	StreamAPI StreamAPIConfig
	Retry     RetryConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// StreamAPIConfig holds the downstream gs-stream-api endpoint and credential.
type StreamAPIConfig struct {
	URL         string
	Token       string
	Timeout     time.Duration
	Environment string
}

// RetryConfig tunes the failed-event retry job. The interval controls how
// often the job wakes up; the backoff schedule per event is independent.
type RetryConfig struct {
	Interval   time.Duration
	MaxRetries int
}

type AdminConfig struct {
	APIKey string
}

func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	getOr := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	getInt := func(key string, fallback int) int {
		val := os.Getenv(key)
		if val == "" {
			return fallback
		}
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			missing = append(missing, key+" (must be a positive integer)")
			return fallback
		}
		return n
	}

	config := &Config{
		Server: ServerConfig{
			Port: get("SERVER_PORT"),
			Host: get("SERVER_HOST"),
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  get("DB_SSLMODE"),
		},
		StreamAPI: StreamAPIConfig{
			URL:         get("GS_STREAM_API_URL"),
			Token:       get("GS_STREAM_API_TOKEN"),
			Timeout:     time.Duration(getInt("GS_STREAM_API_TIMEOUT_SECONDS", 30)) * time.Second,
			Environment: getOr("APP_ENV", "development"),
		},
		Retry: RetryConfig{
			Interval:   time.Duration(getInt("RETRY_JOB_INTERVAL_SECONDS", 60)) * time.Second,
			MaxRetries: getInt("RETRY_JOB_MAX_RETRIES", 10),
		},
		Admin: AdminConfig{
			APIKey: get("ADMIN_API_KEY"),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	if len(config.Admin.APIKey) < 16 {
		return nil, fmt.Errorf("ADMIN_API_KEY must be at least 16 characters")
	}

	return config, nil
}

// ConnectionString returns a DSN string for GORM
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}
