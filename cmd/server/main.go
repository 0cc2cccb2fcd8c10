package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/parkcrm/internal/config"
	"github.com/JonMunkholm/parkcrm/internal/core"
	"github.com/JonMunkholm/parkcrm/internal/database"
	"github.com/JonMunkholm/parkcrm/internal/logging"
	"github.com/JonMunkholm/parkcrm/internal/metrics"
	"github.com/JonMunkholm/parkcrm/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Overload lets a local .env win over stale shell variables.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	pool, err := database.Connect(ctx, database.PoolOptions{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoCreateTables {
		if err := database.Migrate(ctx, pool); err != nil {
			slog.Error("failed to create tables", "error", err)
			os.Exit(1)
		}
		slog.Info("database schema applied")
	}

	opts := []core.Option{
		core.WithLimiter(core.NewImportLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)),
		core.WithRunTimeout(cfg.Upload.Timeout),
	}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m := metrics.NewMetrics(cfg.Metrics.Namespace)
		opts = append(opts, core.WithObserver(m))
		metricsHandler = m.Handler()
	}

	service := core.NewService(database.NewStore(pool), opts...)
	server := web.NewServer(service, cfg, metricsHandler)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go service.StartHistoryPruner(jobCtx, core.RetentionConfig{
		RetentionDays: cfg.History.RetentionDays,
		CheckInterval: cfg.History.CheckInterval,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop taking requests first, then let running imports commit.
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		cancelJobs()
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
