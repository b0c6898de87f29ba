// Package cli provides common initialization utilities shared by the
// server daemon and the guardctl tool.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/evansmunsha/expense-guard/internal/billing"
	"github.com/evansmunsha/expense-guard/internal/config"
	"github.com/evansmunsha/expense-guard/internal/log"
	"github.com/evansmunsha/expense-guard/internal/services"
	"github.com/evansmunsha/expense-guard/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// SetupLogger builds the application logger from the configured level and
// output format, and installs it as the process default.
func SetupLogger(cfg *config.Config) *log.Logger {
	level := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentApp,
		Handler:   log.NewHandler(level, cfg.LogJSON),
	})
	log.SetDefault(logger)
	return logger
}

// OpenStore initializes the configured storage backend.
// Returns the store or exits the process on failure.
func OpenStore(logger *log.Logger, cfg *config.Config) storage.Store {
	switch cfg.Backend {
	case "memory":
		logger.Info("Using in-memory storage, data is lost on exit")
		return storage.NewMemoryStore()
	default:
		store, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			logger.Error("Failed to open database", log.FieldError, err, "path", cfg.DBPath)
			os.Exit(1)
		}
		logger.Info("Database ready", "path", cfg.DBPath)
		return store
	}
}

// BuildTracker assembles the tracker over a store and the local billing
// provider. Returns the tracker or exits the process on failure.
func BuildTracker(logger *log.Logger, cfg *config.Config, store storage.Store) *services.Tracker {
	provider := billing.NewLocalProvider(cfg.BillingFile)
	tracker, err := services.NewTracker(store, provider, logger, services.TrackerConfig{
		Currency:      cfg.Currency,
		LookaheadDays: cfg.LookaheadDays,
		CacheTTL:      cfg.CacheTTL,
		CacheSize:     cfg.CacheSize,
	})
	if err != nil {
		logger.Error("Failed to initialize tracker", log.FieldError, err)
		os.Exit(1)
	}
	return tracker
}
