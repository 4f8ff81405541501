package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Search backends.
const (
	SearchBleve    = "bleve"
	SearchPostgres = "postgres"
	SearchNone     = "none"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	QueryTimeout   time.Duration

	SearchBackend            string
	SearchIndexPath          string
	SearchBreakerMaxFailures int
	SearchBreakerReset       time.Duration

	ElementTypesPath string
	ResourcesDir     string

	// Plugin notifications
	PluginRPCRetryMax     int
	PluginRPCRetryBackoff time.Duration
	PluginRPCTimeout      time.Duration
}

func Load() Config {
	return Config{
		Port:                     getEnv("PORT", "8080"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		DatabaseDriver:           getEnv("DATABASE_DRIVER", DriverPostgres),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		SQLitePath:               getEnv("SQLITE_PATH", "contentstore.db"),
		QueryTimeout:             getEnvDuration("QUERY_TIMEOUT", 5*time.Second),
		SearchBackend:            getEnv("SEARCH_BACKEND", SearchBleve),
		SearchIndexPath:          getEnv("SEARCH_INDEX_PATH", "contentstore.bleve"),
		SearchBreakerMaxFailures: getEnvInt("SEARCH_BREAKER_MAX_FAILURES", 5),
		SearchBreakerReset:       getEnvDuration("SEARCH_BREAKER_RESET", 30*time.Second),
		ElementTypesPath:         getEnvRequired("ELEMENT_TYPES_PATH"),
		ResourcesDir:             getEnv("RESOURCES_DIR", "resources"),
		PluginRPCRetryMax:        getEnvInt("PLUGIN_RPC_RETRY_MAX", 3),
		PluginRPCRetryBackoff:    getEnvDuration("PLUGIN_RPC_RETRY_BACKOFF", 100*time.Millisecond),
		PluginRPCTimeout:         getEnvDuration("PLUGIN_RPC_TIMEOUT", 5*time.Second),
	}
}

// Validate checks that the driver and search backend are known and that
// the settings they need are present.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for driver %q", c.DatabaseDriver)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for driver %q", c.DatabaseDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.SearchBackend {
	case SearchBleve, SearchNone:
	case SearchPostgres:
		if c.DatabaseDriver != DriverPostgres {
			return fmt.Errorf("SEARCH_BACKEND %q requires DATABASE_DRIVER %q", SearchPostgres, DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown SEARCH_BACKEND %q", c.SearchBackend)
	}

	if c.SearchBreakerMaxFailures < 1 {
		return fmt.Errorf("SEARCH_BREAKER_MAX_FAILURES must be at least 1")
	}
	return nil
}

// LogValue implements slog.LogValuer. The database password is masked.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("port", c.Port),
		slog.String("log_level", c.LogLevel),
		slog.String("database_driver", c.DatabaseDriver),
		slog.String("database_url", maskURL(c.DatabaseURL)),
		slog.String("sqlite_path", c.SQLitePath),
		slog.Duration("query_timeout", c.QueryTimeout),
		slog.String("search_backend", c.SearchBackend),
		slog.String("search_index_path", c.SearchIndexPath),
		slog.Int("search_breaker_max_failures", c.SearchBreakerMaxFailures),
		slog.Duration("search_breaker_reset", c.SearchBreakerReset),
		slog.String("element_types_path", c.ElementTypesPath),
		slog.String("resources_dir", c.ResourcesDir),
		slog.Int("plugin_rpc_retry_max", c.PluginRPCRetryMax),
		slog.Duration("plugin_rpc_retry_backoff", c.PluginRPCRetryBackoff),
		slog.Duration("plugin_rpc_timeout", c.PluginRPCTimeout),
	)
}

func maskURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}

func getEnvRequired(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic("required environment variable " + key + " is not set")
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return d
	}
	return fallback
}
