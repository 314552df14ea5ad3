package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/backend"
	"gastos/internal/cli"
	"gastos/internal/config"
	apphttp "gastos/internal/http"
	"gastos/internal/log"
)

const relayBuffer = 256

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(slog.LevelInfo, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.Level(), log.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	sess, err := cli.OpenStore(ctx, bcfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("Failed to close storage backend", log.FieldError, err)
		}
	}()
	sess.Caches.StartCleanup(5 * time.Minute)

	g, gctx := errgroup.WithContext(ctx)

	// Change events are optional: without a broker the app works the same.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			defer client.Close()
			relay := amqp.NewRelay(client, relayBuffer, logger.WithComponent(log.ComponentAMQP).Logger)
			detach := relay.Attach(sess.Store)
			defer detach()
			g.Go(func() error {
				err := relay.Run(gctx)
				sent, dropped := relay.Stats()
				logger.Info("AMQP relay stopped", "sent", sent, "dropped", dropped)
				return err
			})
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, sess.Store,
		apphttp.WithCurrency(cfg.Currency),
		apphttp.WithLogger(logger))
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g.Go(func() error {
		logger.Info("Starting gastos server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"currency", cfg.Currency,
			"amqp", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		return nil
	})

	return g.Wait()
}
