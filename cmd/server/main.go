package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"zomato-dashboard/internal/api"
	"zomato-dashboard/internal/config"
	"zomato-dashboard/internal/engine"
	"zomato-dashboard/internal/logging"
	"zomato-dashboard/internal/storage"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Echo (Starts Instantly)
	// The API is "live" but returns 503 (Loading) until the dataset is set.
	h := api.NewHandler(logger)
	e := api.NewServer(cfg, logger, h)

	// 2. Load the dataset in the background
	go load(ctx, cfg, logger, h)

	// 3. Start Server
	go func() {
		logger.Info("server ready, data loading in background", zap.String("port", cfg.Port))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func load(ctx context.Context, cfg *config.Config, logger *zap.Logger, h *api.Handler) {
	logger.Info("BACKGROUND: loading dataset", zap.String("source", cfg.DataSource))
	t0 := time.Now()

	src, closeSrc, err := storage.NewSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("BACKGROUND: open source", zap.Error(err))
		h.SetLoadError(err)
		return
	}
	defer closeSrc()

	store, err := src.Load(ctx)
	if err != nil {
		logger.Error("BACKGROUND: load failed", zap.Error(err))
		h.SetLoadError(err)
		return
	}

	report := &engine.LoadReport{Rows: store.Len()}
	if r, ok := src.(storage.Reporter); ok && r.Report() != nil {
		report = r.Report()
	}
	h.SetStore(store, report)

	logger.Info("BACKGROUND: dataset ready",
		zap.Int("rows", report.Rows),
		zap.Int("rating_errors", report.RatingErrorCount),
		zap.Duration("took", time.Since(t0)))
}
