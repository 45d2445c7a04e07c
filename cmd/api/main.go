package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"intrinsic_valuation/pkg/api/valuation"
	"intrinsic_valuation/pkg/core/config"
	"intrinsic_valuation/pkg/core/logging"
	"intrinsic_valuation/pkg/core/sensitivity"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to YAML config file")
	flag.Parse()

	// Load environment variables
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "[WARNING] Failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	analyzer := sensitivity.NewAnalyzer(sensitivity.Options{Parallelism: cfg.Sensitivity.Parallelism}, logger)
	handler := valuation.NewHandler(analyzer, logger, cfg.Server.MaxBodyBytes)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           valuation.NewRouter(handler, cfg.Server.CORSOrigin),
		ReadTimeout:       cfg.ReadTimeout(),
		ReadHeaderTimeout: cfg.ReadTimeout(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting",
			zap.String("addr", srv.Addr),
			zap.Int("grid_parallelism", cfg.Sensitivity.Parallelism),
		)
		logger.Info("routes",
			zap.Strings("endpoints", []string{
				"GET  /api/healthcheck",
				"POST /api/dcf",
				"POST /api/dcf/report",
			}),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			// e.g. port in use
			logger.Error("server failed to start", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
