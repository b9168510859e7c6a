package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"giftbook/internal/cli"
	applog "giftbook/internal/log"
	"giftbook/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(applog.ComponentWorker, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Starting giftbook worker", "interval", cfg.SyncInterval, "batch_size", cfg.SyncBatchSize)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	mirror := cli.InitMirror(ctx, logger, cfg)
	syncWorker := worker.NewSyncWorker(repo, mirror, cfg.SyncBatchSize)

	logger.InfoContext(ctx, "Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed startup sync check", "error", err)
	}

	consumer := cli.InitAMQP(ctx, logger, cfg)
	if consumer != nil {
		defer consumer.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeRecordEvents(gctx, syncWorker.HandleRecordEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorContext(gctx, "Message consumption failed", "error", err)
				return err
			}
			return nil
		})
	} else {
		logger.InfoContext(ctx, "Skipping event consumption - relying on periodic sync")
	}

	g.Go(func() error {
		return syncWorker.RunPeriodic(gctx, cfg.SyncInterval)
	})

	if cfg.MetricsPort != "" {
		metricsSrv := newMetricsServer(":" + cfg.MetricsPort)
		g.Go(func() error {
			logger.InfoContext(gctx, "Serving metrics", "addr", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.ErrorContext(context.Background(), "Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.InfoContext(context.Background(), "Worker shutdown complete")
}

func newMetricsServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
