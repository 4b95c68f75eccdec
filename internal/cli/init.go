// Package cli implements the invoicer command line: initialization, the
// command registry, the commands themselves and terminal rendering.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"invoicer/internal/config"
	"invoicer/internal/log"
	"invoicer/internal/storage"
)

// LoadEnvFile loads a .env file from the working directory when present.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the optional config file, applies the
// environment and validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.LoadWithFile(config.FilePath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger. Logs go to w, never to stdout,
// which carries command output.
func SetupLogger(cfg *config.Config, w io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Component = log.ComponentCLI
	if w != nil {
		lc.Output = w
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// InitSQLite opens the local state store.
func InitSQLite(logger *log.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize state store", log.FieldError, err.Error(), "path", dbPath)
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return repo, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM, so an
// interrupted command abandons its in-flight request.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
