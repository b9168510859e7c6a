// Command giftbook-tool runs ledger utilities without the HTTP server.
//
//	giftbook-tool amount 1001.5
//	giftbook-tool lunar --date 2024-02-10
//	giftbook-tool export --db ./data/giftbook.db -o ledger.csv --stats
//	giftbook-tool stats --db ./data/giftbook.db --format yaml
//	giftbook-tool print --db ./data/giftbook.db -o book.html --theme gold
package main

import (
	"context"
	"os"
	"time"

	"giftbook/internal/cli"
	applog "giftbook/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentTool, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	ctx := context.Background()
	if err := newRootCmd(time.Now).ExecuteContext(ctx); err != nil {
		logger.ErrorContext(ctx, "Command failed", "error", err)
		os.Exit(1)
	}
}
