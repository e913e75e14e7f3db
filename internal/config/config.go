package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	LogLevel string
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr            string
	SessionLifetime time.Duration
	CookieName      string
	CookieSecure    bool
}

// DatabaseConfig contains the database connection settings. URL selects the
// backend by scheme: postgres:// connects to PostgreSQL, anything else is
// treated as a sqlite DSN. MockDB replaces the store with a seeded in-memory
// database for demos.
type DatabaseConfig struct {
	URL             string
	MockDB          bool
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Load inspects the environment and builds a Config value.
func Load() (Config, error) {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		SessionLifetime: durationEnv("SESSION_LIFETIME", 12*time.Hour),
		CookieName: firstNonEmpty(
			os.Getenv("SESSION_COOKIE_NAME"),
			"flourcast_session",
		),
		CookieSecure: boolEnv("SESSION_COOKIE_SECURE", false),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"flourcast.db",
		),
		MockDB:          boolEnv("FLOURCAST_MOCK_DB", false),
		MaxIdleConns:    intEnv("DB_MAX_IDLE_CONNS", 2),
		MaxOpenConns:    intEnv("DB_MAX_OPEN_CONNS", 10),
		ConnMaxLifetime: durationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: durationEnv("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
	}

	cfg.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func boolEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
