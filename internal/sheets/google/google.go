// Package google mirrors the gift ledger to a Google spreadsheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "giftbook/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID   string
	ChangeLogSheet  string
	LedgerSheet     string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc            *gsheet.Service
	spreadsheetID  string
	changeLogSheet string
	ledgerSheet    string
}

// Ensure interface conformance
var (
	_ ports.ChangeLogWriter = (*Client)(nil)
	_ ports.LedgerWriter    = (*Client)(nil)
)

// NewClient creates a Sheets client authenticated with service account
// credentials from cfg, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	c := &Client{
		svc:            svc,
		spreadsheetID:  strings.TrimSpace(cfg.SpreadsheetID),
		changeLogSheet: strings.TrimSpace(cfg.ChangeLogSheet),
		ledgerSheet:    strings.TrimSpace(cfg.LedgerSheet),
	}
	if c.changeLogSheet == "" {
		c.changeLogSheet = "变更记录"
	}
	if c.ledgerSheet == "" {
		c.ledgerSheet = "礼金簿"
	}
	return c
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendChange appends one row to the change log sheet and returns the
// A1 range it was written to.
func (c *Client) AppendChange(ctx context.Context, row ports.ChangeRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := sheetRange(c.changeLogSheet, "A:I")
	vr := &gsheet.ValueRange{Values: [][]any{toCells(row.Values())}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append change to %s: %w", c.changeLogSheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Change mirrored to Google Sheets",
		"record_id", row.RecordID,
		"operation", row.Operation,
		"sheets_ref", ref)
	return ref, nil
}

// ReplaceLedger clears the ledger sheet and writes header and rows from A1.
func (c *Client) ReplaceLedger(ctx context.Context, header []string, rows [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRng := sheetRange(c.ledgerSheet, "A:Z")
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", c.ledgerSheet, err)
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, toCells(header))
	for _, r := range rows {
		values = append(values, toCells(r))
	}
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheetRange(c.ledgerSheet, "A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", c.ledgerSheet, err)
	}

	slog.InfoContext(ctx, "Ledger exported to Google Sheets", "sheet", c.ledgerSheet, "rows", len(rows))
	return nil
}

// sheetRange quotes the sheet name so names with spaces or quotes stay valid A1 notation.
func sheetRange(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}

func toCells(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
