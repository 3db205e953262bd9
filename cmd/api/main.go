package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellness-nudges-backend/internal/analytics"
	"wellness-nudges-backend/internal/api"
	"wellness-nudges-backend/internal/config"
	"wellness-nudges-backend/internal/logging"
	"wellness-nudges-backend/internal/scoring"
	"wellness-nudges-backend/internal/tasks"
)

// ----------------------
//        MAIN
// ----------------------

func main() {
	if err := run(); err != nil {
		log.Fatal("❌ ", err)
	}
}

func run() error {
	logger := log.New(os.Stdout, "", 0)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		recorder analytics.Recorder
		reader   analytics.EventReader
	)
	if cfg.Analytics.Enabled() {
		store, err := analytics.Open(ctx, cfg.Analytics.Driver, cfg.Analytics.DSN())
		if err != nil {
			return fmt.Errorf("failed to connect analytics store: %w", err)
		}
		defer store.Close()
		recorder, reader = store, store
		logging.Info(logger, "analytics_enabled", map[string]any{"driver": cfg.Analytics.Driver})
	}

	rec := tasks.NewRecommender(scoring.New(cfg.Weights), cfg.Limit)
	svc := tasks.NewService(rec, tasks.RealClock{}, recorder, logger)
	if cfg.SeedOnStart {
		svc.Seed(ctx)
	}

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: api.NewRouter(svc, api.Options{
			CORSOrigins: cfg.CORSOrigins,
			Events:      reader,
			Logger:      logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(logger, "server_started", map[string]any{"addr": srv.Addr, "cors_origins": cfg.CORSOrigins})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logging.Info(logger, "server_stopping", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error(logger, "server_shutdown_failed", err, nil)
		}
	}
	return nil
}
