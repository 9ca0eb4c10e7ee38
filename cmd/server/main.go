// Package main is the entry point for the counter-service HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/counter-service/internal/config"
	"github.com/fleveque/counter-service/internal/events"
	"github.com/fleveque/counter-service/internal/logging"
	"github.com/fleveque/counter-service/internal/server"
	"github.com/fleveque/counter-service/internal/service"
	"github.com/fleveque/counter-service/internal/storage"
)

func main() {
	// run() is separate so deferred cleanup executes before os.Exit.
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("COUNTER_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	// Sync commonly fails on stdout/stderr; nothing useful to do about it.
	defer func() { _ = logger.Sync() }()

	db, err := storage.NewDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	publisher, err := events.New(cfg.Events)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("closing event publisher", zap.Error(err))
		}
	}()

	counter := service.NewCounterService(storage.NewCounterRepository(db), publisher, logger)
	srv := server.New(cfg, db, server.Deps{CounterService: counter}, logger)

	// Graceful shutdown on SIGINT (Ctrl+C) or SIGTERM (docker stop).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Give in-flight requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
