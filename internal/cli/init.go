// Package cli holds the start-up steps shared by cmd/billed and
// cmd/billed-worker.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"billed/internal/backend"
	"billed/internal/config"
	applog "billed/internal/log"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// SetupLogger builds the process logger from cfg, installs it as the
// slog default and returns it.
func SetupLogger(cfg *config.Config, out io.Writer) (*slog.Logger, error) {
	logger, err := applog.New(applog.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: out,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// Bootstrap runs the common start-up sequence: .env, config, logger.
// Any failure exits the process.
func Bootstrap(service string) (*config.Config, *slog.Logger) {
	LoadEnvFile()

	boot := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := LoadAndValidateConfig(boot)

	logger, err := SetupLogger(cfg, os.Stdout)
	if err != nil {
		boot.Error("Failed to set up logger", "error", err)
		os.Exit(1)
	}
	return cfg, logger.With(applog.FieldService, service)
}

// BackendConfig converts cfg or exits the process.
func BackendConfig(logger *slog.Logger, cfg *config.Config) backend.Config {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	return bcfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// Close runs fn and logs a failure under name. A nil fn is skipped.
func Close(logger *slog.Logger, name string, fn backend.CleanupFunc) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Error("Failed to close resource", "resource", name, "error", err)
	}
}
