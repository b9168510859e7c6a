package main

import (
	"context"
	"os"
	"time"

	"giftbook/internal/cli"
	apphttp "giftbook/internal/http"
	applog "giftbook/internal/log"
	"giftbook/internal/services"
	"giftbook/internal/sheets"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentApp, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(applog.ComponentApp, cfg.LogLevel, cfg.LogFormat)

	boot := context.Background()
	logger.InfoContext(boot, "Starting giftbook server", "port", cfg.Port, "db", cfg.SQLiteDBPath)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	publisher := cli.InitAMQP(boot, logger, cfg)
	if publisher != nil {
		defer publisher.Close()
	}
	ledger := cli.NewLedgerService(cfg, repo, publisher)

	var ledgerSheet sheets.LedgerWriter
	if client := cli.InitGoogleSheets(boot, logger, cfg); client != nil {
		ledgerSheet = client
	}

	loc := cfg.Location()
	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Ledger:         ledger,
		Exports:        services.NewExportService(loc),
		Sheets:         ledgerSheet,
		Location:       loc,
		BookTitle:      cfg.BookTitle,
		PrintTheme:     cfg.PrintTheme,
		RateLimitRPM:   cfg.RateLimitRPM,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.ErrorContext(ctx, "Server shutdown error", "error", err)
		}
	})

	logger.InfoContext(ctx, "Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.ErrorContext(ctx, "Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.InfoContext(boot, "Server stopped gracefully")
}
