package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend  string
	SQLiteDBPath string
	SeedDir      string

	// AMQP notifications; empty URL means notifications are only logged
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Ledger behaviour
	RecurringInterval time.Duration
	BudgetWindow      string
	NotifyDedupeTTL   time.Duration
	PersistQueueSize  int

	LogLevel string
}

var (
	validBackends      = []string{"memory", "sqlite"}
	validBudgetWindows = []string{"lifetime", "monthly"}
	validLogLevels     = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgetbook.db"),
		SeedDir:      getEnv("SEED_DIR", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetbook"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "notifications"),

		RecurringInterval: getEnvDuration("RECURRING_INTERVAL", time.Hour),
		BudgetWindow:      strings.ToLower(getEnv("BUDGET_WINDOW", "lifetime")),
		NotifyDedupeTTL:   getEnvDuration("NOTIFY_DEDUPE_TTL", 0),
		PersistQueueSize:  getEnvInt("PERSIST_QUEUE_SIZE", 0),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate reports every problem with the configuration in a single error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SeedDir != "" {
		if info, err := os.Stat(c.SeedDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("seed directory '%s' does not exist", c.SeedDir))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RecurringInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at least 1 second", c.RecurringInterval))
	} else if c.RecurringInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at most 24 hours", c.RecurringInterval))
	}

	if !slices.Contains(validBudgetWindows, c.BudgetWindow) {
		errors = append(errors, fmt.Sprintf("invalid budget window '%s': must be one of %v", c.BudgetWindow, validBudgetWindows))
	}

	if c.NotifyDedupeTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid notify dedupe ttl %v: must not be negative", c.NotifyDedupeTTL))
	}

	if c.PersistQueueSize < 0 || c.PersistQueueSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid persist queue size %d: must be between 0 and 10000", c.PersistQueueSize))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
