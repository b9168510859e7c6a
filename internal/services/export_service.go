package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"giftbook/internal/core"
	"giftbook/internal/metrics"
	"giftbook/internal/sheets"
)

// DefaultEventName titles exports when the caller gives none.
const DefaultEventName = "电子礼金簿"

// ExportHeader labels the record columns of every export.
var ExportHeader = []string{"序号", "姓名", "金额（元）", "金额（大写）", "物品", "支付方式", "备注", "创建时间"}

// ErrNothingToExport is returned when a report needs at least one record.
var ErrNothingToExport = errors.New("no records to export")

// Export is a ledger flattened into spreadsheet rows.
type Export struct {
	Header []string
	Rows   [][]string
	// Stats holds label/value pairs, empty unless requested and records exist.
	Stats [][2]string
}

// ExportService turns records into tabular exports.
type ExportService struct {
	loc *time.Location
}

// NewExportService formats timestamps in loc, or UTC when loc is nil.
func NewExportService(loc *time.Location) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{loc: loc}
}

// Prepare numbers the records in the given order and optionally appends
// summary statistics.
func (s *ExportService) Prepare(records []core.Record, includeStats bool) Export {
	out := Export{Header: ExportHeader, Rows: make([][]string, 0, len(records))}
	for i, r := range records {
		chinese := r.AmountChinese
		if chinese == "" {
			chinese = r.Amount.Chinese()
		}
		created := ""
		if !r.CreateTime.IsZero() {
			created = r.CreateTime.In(s.loc).Format(time.DateTime)
		}
		out.Rows = append(out.Rows, []string{
			strconv.Itoa(i + 1),
			r.GuestName,
			plainAmount(r.Amount),
			chinese,
			r.ItemDescription,
			r.PaymentType.Label(),
			r.Remark,
			created,
		})
	}

	if includeStats && len(records) > 0 {
		st := core.Summarize(records)
		out.Stats = [][2]string{
			{"总金额", plainAmount(st.TotalAmount)},
			{"平均金额", plainAmount(st.Average())},
			{"最大金额", plainAmount(st.Max)},
			{"最小金额", plainAmount(st.Min)},
			{"记录条数", strconv.Itoa(st.TotalCount)},
		}
	}
	return out
}

// StatisticsReport summarizes records as label/value rows, followed by one
// row per payment type in use.
func (s *ExportService) StatisticsReport(records []core.Record) ([][]string, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}
	st := core.Summarize(records)
	rows := [][]string{
		{"统计项目", "数值"},
		{"总记录数", strconv.Itoa(st.TotalCount)},
		{"总金额", plainAmount(st.TotalAmount)},
		{"平均金额", plainAmount(st.Average())},
		{"最大金额", plainAmount(st.Max)},
		{"最小金额", plainAmount(st.Min)},
		{"", ""},
		{"支付方式统计", ""},
	}

	counts := map[core.PaymentType]int{}
	totals := map[core.PaymentType]core.Money{}
	for _, r := range records {
		counts[r.PaymentType]++
		totals[r.PaymentType] = totals[r.PaymentType].Add(r.Amount)
	}
	for _, pt := range []core.PaymentType{core.PaymentCash, core.PaymentWeChat, core.PaymentInternal} {
		if counts[pt] == 0 {
			continue
		}
		rows = append(rows, []string{
			fmt.Sprintf("%s (%d笔)", pt.Label(), counts[pt]),
			plainAmount(totals[pt]),
		})
	}
	return rows, nil
}

// WriteCSV writes the export as UTF-8 CSV with a byte order mark so that
// spreadsheet programs detect the encoding. Statistics follow the records
// after a blank line.
func (s *ExportService) WriteCSV(w io.Writer, e Export) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(e.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(e.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	if len(e.Stats) > 0 {
		if err := cw.Write([]string{"", ""}); err != nil {
			return fmt.Errorf("write separator: %w", err)
		}
		for _, st := range e.Stats {
			if err := cw.Write(st[:]); err != nil {
				return fmt.Errorf("write statistics: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	metrics.Exports.WithLabelValues(metrics.FormatCSV).Inc()
	return nil
}

// ExportToSheets replaces the spreadsheet copy of the ledger.
func (s *ExportService) ExportToSheets(ctx context.Context, lw sheets.LedgerWriter, records []core.Record) error {
	if lw == nil {
		return errors.New("no spreadsheet configured")
	}
	e := s.Prepare(records, false)
	if err := lw.ReplaceLedger(ctx, e.Header, e.Rows); err != nil {
		return fmt.Errorf("export to sheets: %w", err)
	}
	metrics.Exports.WithLabelValues(metrics.FormatSheets).Inc()
	slog.InfoContext(ctx, "Ledger exported", "rows", len(e.Rows))
	return nil
}

// FileName builds "<event>_<kind>_<YYYYMMDD>.<ext>", replacing characters
// that are not allowed in file names.
func FileName(eventName, kind, ext string, now time.Time) string {
	if strings.TrimSpace(eventName) == "" {
		eventName = DefaultEventName
	}
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/:*?"<>|`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(eventName))
	return fmt.Sprintf("%s_%s_%s.%s", clean, kind, now.Format("20060102"), ext)
}

func plainAmount(m core.Money) string {
	return m.Yuan().StringFixed(2)
}
