// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/gastos and cmd/gastosctl.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gastos/internal/backend"
	"gastos/internal/cache"
	"gastos/internal/config"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store"
)

// View memo sizing. Keys are per revision, so old entries only age out.
const (
	viewCacheSize = 64
	viewCacheTTL  = 10 * time.Minute
)

// SetupLogger builds the process logger at level and makes it the default.
func SetupLogger(level slog.Level, component string) *log.Logger {
	logger := log.NewText(os.Stdout, level, component)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Error("Configuration load failed", log.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Session bundles a hydrated store with the resources behind it.
type Session struct {
	Store   *store.Store
	Backend *backend.BackendResult
	Caches  *cache.Manager
}

// Close stops cache cleanup and releases the storage backend.
func (s *Session) Close() error {
	if s.Caches != nil {
		s.Caches.Stop()
	}
	return s.Backend.Close()
}

// OpenStore creates the configured storage slot and hydrates a store from it,
// with a view memo registered for periodic cleanup.
func OpenStore(ctx context.Context, cfg backend.Config, logger *log.Logger, opts ...store.Option) (*Session, error) {
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Type, err)
	}

	views := cache.NewLRUCache[string, []core.Expense](viewCacheSize, viewCacheTTL)
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(views)

	opts = append([]store.Option{
		store.WithLogger(logger.WithComponent(log.ComponentStore).Logger),
		store.WithViewCache(views),
	}, opts...)

	return &Session{
		Store:   store.New(ctx, res.Slot, opts...),
		Backend: res,
		Caches:  caches,
	}, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
