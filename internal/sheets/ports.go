package sheets

import (
	"context"
	"strconv"
	"time"
)

// ChangeLogHeader labels the columns of a ChangeRow.
var ChangeLogHeader = []string{"记录ID", "操作", "姓名", "金额（元）", "金额（大写）", "物品", "支付方式", "备注", "时间"}

// ChangeRow is one line of the change log mirrored to a spreadsheet.
type ChangeRow struct {
	RecordID        int64
	Operation       string
	GuestName       string
	Amount          string
	AmountChinese   string
	ItemDescription string
	Payment         string
	Remark          string
	ChangedAt       time.Time
}

// Values returns the row cells in ChangeLogHeader order.
func (r ChangeRow) Values() []string {
	return []string{
		strconv.FormatInt(r.RecordID, 10),
		r.Operation,
		r.GuestName,
		r.Amount,
		r.AmountChinese,
		r.ItemDescription,
		r.Payment,
		r.Remark,
		r.ChangedAt.Format("2006-01-02 15:04:05"),
	}
}

// Ports for outbound adapters.
type (
	// ChangeLogWriter appends ledger changes to an external change log.
	ChangeLogWriter interface {
		AppendChange(ctx context.Context, row ChangeRow) (rowRef string, err error)
	}

	// LedgerWriter replaces the external copy of the whole ledger.
	LedgerWriter interface {
		ReplaceLedger(ctx context.Context, header []string, rows [][]string) error
	}
)
