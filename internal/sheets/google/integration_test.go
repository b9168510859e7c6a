//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	ports "giftbook/internal/sheets"
)

// Integration tests require a real spreadsheet shared with the service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_MirrorFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := NewClient(ctx, Config{
		SpreadsheetID:   spreadsheetID,
		ChangeLogSheet:  os.Getenv("GOOGLE_CHANGELOG_SHEET"),
		LedgerSheet:     os.Getenv("GOOGLE_LEDGER_SHEET"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ref, err := client.AppendChange(ctx, ports.ChangeRow{
		RecordID:      1,
		Operation:     "created",
		GuestName:     "集成测试",
		Amount:        "1.00",
		AmountChinese: "壹元整",
		Payment:       "现金",
		ChangedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("AppendChange: %v", err)
	}
	t.Logf("appended at %s", ref)

	if err := client.ReplaceLedger(ctx, []string{"序号", "姓名"}, [][]string{{"1", "集成测试"}}); err != nil {
		t.Fatalf("ReplaceLedger: %v", err)
	}
}
