package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Addr string

	// Storage
	Backend string
	DBPath  string

	// Budget engine
	Currency      string
	LookaheadDays int
	CacheTTL      time.Duration
	CacheSize     int

	// Reminders
	NudgeInterval time.Duration

	// Billing
	BillingFile string

	// Logging
	LogLevel string
	LogJSON  bool
}

func Load() *Config {
	cfg := &Config{
		Addr: getEnv("EXPENSE_GUARD_ADDR", ":8844"),

		Backend: getEnv("EXPENSE_GUARD_BACKEND", "sqlite"),
		DBPath:  getEnv("EXPENSE_GUARD_DB", "./data/expense-guard.db"),

		Currency:      getEnv("EXPENSE_GUARD_CURRENCY", "USD"),
		LookaheadDays: getEnvInt("EXPENSE_GUARD_LOOKAHEAD_DAYS", 3),
		CacheTTL:      getEnvDuration("EXPENSE_GUARD_CACHE_TTL", 5*time.Minute),
		CacheSize:     getEnvInt("EXPENSE_GUARD_CACHE_SIZE", 12),

		NudgeInterval: getEnvDuration("EXPENSE_GUARD_NUDGE_INTERVAL", time.Hour),

		BillingFile: getEnv("EXPENSE_GUARD_BILLING_FILE", "./data/purchases.txt"),

		LogLevel: getEnv("EXPENSE_GUARD_LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("EXPENSE_GUARD_LOG_JSON", false),
	}

	return cfg
}

// Validate checks the configuration and returns one error naming every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if _, port, err := net.SplitHostPort(c.Addr); err != nil {
		errors = append(errors, fmt.Sprintf("invalid listen address '%s': %v", c.Addr, err))
	} else if p, err := strconv.Atoi(port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", port))
	} else if p < 1 || p > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", p))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.Backend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, validBackends))
	}

	if c.Backend == "sqlite" {
		if c.DBPath == "" {
			errors = append(errors, "database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.DBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if strings.TrimSpace(c.Currency) == "" {
		errors = append(errors, "currency cannot be empty")
	}

	if c.LookaheadDays < 0 {
		errors = append(errors, fmt.Sprintf("invalid lookahead %d: must not be negative", c.LookaheadDays))
	} else if c.LookaheadDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid lookahead %d: must be at most 365 days", c.LookaheadDays))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if c.NudgeInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid nudge interval %v: must be at least 1 minute", c.NudgeInterval))
	} else if c.NudgeInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid nudge interval %v: must be at most 24 hours", c.NudgeInterval))
	}

	if c.BillingFile == "" {
		errors = append(errors, "billing file path cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	isValidLevel := false
	for _, level := range validLevels {
		if c.LogLevel == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
