package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	CORSOrigins             []string
	RateLimitRPM            int
	AuthSecret              string
	AuthTokenTTL            time.Duration
	StoreDriver             string
	BadgerPath              string
	BadgerSyncWrites        bool
	DatabaseURL             string
	DBMaxConns              int32
	DBMinConns              int32
	EnvBackend              string
	SystemEnvFile           string
	TrashDefaultCleanupDays int
	TrashCleanupInterval    time.Duration
	LogLevel                string
	LogFormat               string
}

// settingKeys are the environment keys the server reads its own settings from.
var settingKeys = []string{
	"SERVER_PORT", "SERVER_READ_HEADER_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
	"REQUEST_TIMEOUT", "CORS_ORIGINS", "RATE_LIMIT_RPM", "AUTH_SECRET", "AUTH_TOKEN_TTL",
	"STORE_DRIVER", "BADGER_PATH", "BADGER_SYNC_WRITES", "DATABASE_URL", "DB_MAX_CONNS",
	"DB_MIN_CONNS", "ENV_BACKEND", "SYSTEM_ENV_FILE", "TRASH_DEFAULT_CLEANUP_DAYS",
	"TRASH_CLEANUP_INTERVAL", "LOG_LEVEL", "LOG_FORMAT",
}

// ReservedKeys returns the setting keys. A backend that manages the
// server's own process environment must hide them.
func ReservedKeys() []string {
	return append([]string(nil), settingKeys...)
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8787"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "http://localhost:*,http://127.0.0.1:*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthSecret:              strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AuthTokenTTL:            getDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		StoreDriver:             strings.ToLower(getEnv("STORE_DRIVER", "badger")),
		BadgerPath:              getEnv("BADGER_PATH", "./state/badger"),
		BadgerSyncWrites:        getBool("BADGER_SYNC_WRITES", true),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		EnvBackend:              strings.ToLower(getEnv("ENV_BACKEND", "auto")),
		SystemEnvFile:           getEnv("SYSTEM_ENV_FILE", "/etc/environment"),
		TrashDefaultCleanupDays: getInt("TRASH_DEFAULT_CLEANUP_DAYS", 30),
		TrashCleanupInterval:    getDuration("TRASH_CLEANUP_INTERVAL", time.Hour),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	switch c.StoreDriver {
	case "badger":
		if strings.TrimSpace(c.BadgerPath) == "" {
			return fmt.Errorf("BADGER_PATH cannot be empty when STORE_DRIVER=badger")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
		if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS must satisfy 0 <= min <= max, max >= 1")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be one of badger|postgres|memory, got %q", c.StoreDriver)
	}

	switch c.EnvBackend {
	case "auto", "registry", "process", "memory", "none":
	default:
		return fmt.Errorf("ENV_BACKEND must be one of auto|registry|process|memory|none, got %q", c.EnvBackend)
	}

	if c.TrashDefaultCleanupDays < 1 {
		return fmt.Errorf("TRASH_DEFAULT_CLEANUP_DAYS must be at least 1")
	}

	if c.TrashCleanupInterval < 0 {
		return fmt.Errorf("TRASH_CLEANUP_INTERVAL cannot be negative")
	}

	if c.AuthSecret != "" && len(c.AuthSecret) < 16 {
		return fmt.Errorf("AUTH_SECRET must be at least 16 characters")
	}

	switch c.LogFormat {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json, got %q", c.LogFormat)
	}

	return nil
}

func (c *Config) AuthEnabled() bool {
	return c.AuthSecret != ""
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
