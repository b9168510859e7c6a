package cli

import (
	"context"
	"os"

	"giftbook/internal/amqp"
	"giftbook/internal/cache"
	"giftbook/internal/config"
	"giftbook/internal/core"
	applog "giftbook/internal/log"
	"giftbook/internal/services"
	"giftbook/internal/sheets"
	"giftbook/internal/sheets/google"
	"giftbook/internal/sheets/memory"
)

// Mirror is a spreadsheet that takes both change rows and full ledger
// exports.
type Mirror interface {
	sheets.ChangeLogWriter
	sheets.LedgerWriter
}

// GoogleConfig maps the environment onto the Sheets client settings.
func GoogleConfig(cfg *config.Config) google.Config {
	return google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		ChangeLogSheet:  cfg.GoogleChangeLogSheet,
		LedgerSheet:     cfg.GoogleLedgerSheet,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}
}

// InitGoogleSheets connects to the configured spreadsheet, or returns nil
// when none is configured. It exits the process if the client cannot be
// created.
func InitGoogleSheets(ctx context.Context, logger *applog.Logger, cfg *config.Config) *google.Client {
	if !cfg.SheetsEnabled() {
		logger.InfoContext(ctx, "Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil
	}
	client, err := google.NewClient(ctx, GoogleConfig(cfg))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client
}

// InitMirror returns the Google spreadsheet when configured and an
// in-memory mirror otherwise.
func InitMirror(ctx context.Context, logger *applog.Logger, cfg *config.Config) Mirror {
	if client := InitGoogleSheets(ctx, logger, cfg); client != nil {
		return client
	}
	logger.WarnContext(ctx, "Mirroring to memory only; changes will not reach a spreadsheet")
	return memory.New()
}

// InitAMQP connects to the broker, or returns nil when AMQP_URL is empty.
// A broker that cannot be reached is logged and treated as absent: the
// pending sweep still mirrors every change.
func InitAMQP(ctx context.Context, logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.InfoContext(ctx, "AMQP disabled - no AMQP_URL provided")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize AMQP client", "error", err)
		return nil
	}
	logger.InfoContext(ctx, "AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// NewLedgerService builds the ledger service with configured caches and,
// when publisher is set, change events.
func NewLedgerService(cfg *config.Config, store services.LedgerStore, publisher *amqp.Client) *services.LedgerService {
	opts := []services.LedgerOption{
		services.WithCaches(
			cache.NewLRUCache[core.Statistics](1, cfg.CacheTTL),
			cache.NewLRUCache[[]core.Record](cfg.CacheSize, cfg.CacheTTL),
		),
	}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	return services.NewLedgerService(store, opts...)
}
