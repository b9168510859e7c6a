package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"giftbook/internal/core"
	"giftbook/internal/search"

	_ "modernc.org/sqlite"
)

// TimeLayout is the layout of every timestamp column.
const TimeLayout = search.TimeLayout

const recordColumns = `id, guest_name, amount_cents, amount_chinese, item_description,
	payment_type, remark, create_time, update_time, is_deleted, version`

const historyColumns = `id, record_id, old_guest_name, old_amount_cents, old_item_description,
	old_payment_type, old_remark, new_guest_name, new_amount_cents, new_item_description,
	new_payment_type, new_remark, operation_type, update_by, update_time, change_desc`

// SQLiteRepository stores the ledger in a single SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY inside transactions.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) timestamp() string {
	return r.now().UTC().Format(TimeLayout)
}

// Insert stores a new record and returns it with its ID and timestamps.
func (r *SQLiteRepository) Insert(ctx context.Context, rec core.Record) (core.Record, error) {
	ts := r.timestamp()
	id, err := insertRecord(ctx, r.db, rec, ts)
	if err != nil {
		return core.Record{}, err
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", id,
		"guest_name", rec.GuestName,
		"amount_cents", rec.Amount.Cents)

	return r.getRecord(ctx, r.db, id, false)
}

// BatchInsert stores all records in one transaction. Either every record
// is stored or none is.
func (r *SQLiteRepository) BatchInsert(ctx context.Context, recs []core.Record) ([]int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	ts := r.timestamp()
	ids := make([]int64, 0, len(recs))
	for i, rec := range recs {
		id, err := insertRecord(ctx, tx, rec, ts)
		if err != nil {
			return nil, fmt.Errorf("insert record %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch insert: %w", err)
	}

	slog.InfoContext(ctx, "Batch saved to SQLite", "count", len(ids))
	return ids, nil
}

// Get returns a live record. Deleted or unknown IDs return core.ErrRecordNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Record, error) {
	return r.getRecord(ctx, r.db, id, false)
}

// GetIncludingDeleted returns a record even if it was soft deleted.
func (r *SQLiteRepository) GetIncludingDeleted(ctx context.Context, id int64) (core.Record, error) {
	return r.getRecord(ctx, r.db, id, true)
}

// List returns every live record, newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Record, error) {
	return r.queryRecords(ctx, `SELECT `+recordColumns+` FROM records
		WHERE is_deleted = 0 ORDER BY create_time DESC, id DESC`)
}

// ListPage returns one page of live records, newest first. Pages start at 1.
func (r *SQLiteRepository) ListPage(ctx context.Context, page, size int) (core.Page[core.Record], error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		return core.Page[core.Record]{}, fmt.Errorf("invalid page size %d", size)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE is_deleted = 0`).Scan(&total); err != nil {
		return core.Page[core.Record]{}, fmt.Errorf("count records: %w", err)
	}

	items, err := r.queryRecords(ctx, `SELECT `+recordColumns+` FROM records
		WHERE is_deleted = 0 ORDER BY create_time DESC, id DESC LIMIT ? OFFSET ?`,
		size, (page-1)*size)
	if err != nil {
		return core.Page[core.Record]{}, err
	}
	return core.NewPage(items, total, page, size), nil
}

// RecordPage returns the page on which a live record appears in ListPage.
func (r *SQLiteRepository) RecordPage(ctx context.Context, id int64, size int) (int, error) {
	if size < 1 {
		return 0, fmt.Errorf("invalid page size %d", size)
	}
	rec, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	var before int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records
		WHERE is_deleted = 0 AND (create_time > ? OR (create_time = ? AND id > ?))`,
		formatTime(rec.CreateTime), formatTime(rec.CreateTime), rec.ID).Scan(&before)
	if err != nil {
		return 0, fmt.Errorf("locate record %d: %w", id, err)
	}
	return before/size + 1, nil
}

// Search returns live records matching the criteria, newest first.
func (r *SQLiteRepository) Search(ctx context.Context, c search.Criteria) ([]core.Record, error) {
	cond := search.Build(c)
	return r.queryRecords(ctx, `SELECT `+recordColumns+` FROM records
		WHERE `+cond.Where+` ORDER BY create_time DESC, id DESC`, cond.Args...)
}

// Update replaces the editable fields of a live record and writes an
// UPDATE history entry holding the old and new values, atomically.
func (r *SQLiteRepository) Update(ctx context.Context, id int64, v core.RecordValues, amountChinese, updatedBy string) (core.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Record{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	old, err := r.getRecord(ctx, tx, id, false)
	if err != nil {
		return core.Record{}, err
	}

	ts := r.timestamp()
	if err := insertHistory(ctx, tx, id, old.Values(), &v, core.OpUpdate, updatedBy, ts, core.ChangeDescUpdate); err != nil {
		return core.Record{}, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE records SET
		guest_name = ?, amount_cents = ?, amount_chinese = ?, item_description = ?,
		payment_type = ?, remark = ?, update_time = ?, version = version + 1, sync_status = 'pending'
		WHERE id = ?`,
		v.GuestName, v.Amount.Cents, amountChinese, v.ItemDescription,
		int(v.PaymentType), v.Remark, ts, id)
	if err != nil {
		return core.Record{}, fmt.Errorf("update record %d: %w", id, err)
	}

	updated, err := r.getRecord(ctx, tx, id, false)
	if err != nil {
		return core.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Record{}, fmt.Errorf("commit update: %w", err)
	}

	slog.InfoContext(ctx, "Record updated", "id", id, "update_by", updatedBy)
	return updated, nil
}

// SoftDelete flags a live record as deleted and writes a DELETE history
// entry holding its last values, atomically.
func (r *SQLiteRepository) SoftDelete(ctx context.Context, id int64, updatedBy string) (core.Record, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Record{}, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	old, err := r.getRecord(ctx, tx, id, false)
	if err != nil {
		return core.Record{}, err
	}

	ts := r.timestamp()
	if err := insertHistory(ctx, tx, id, old.Values(), nil, core.OpDelete, updatedBy, ts, core.ChangeDescDelete); err != nil {
		return core.Record{}, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE records SET is_deleted = 1, update_time = ?, version = version + 1,
		sync_status = 'pending' WHERE id = ?`, ts, id)
	if err != nil {
		return core.Record{}, fmt.Errorf("delete record %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Record{}, fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Record deleted", "id", id, "update_by", updatedBy)
	old.IsDeleted = true
	old.UpdateTime = parseTime(ts)
	old.Version++
	return old, nil
}

// History returns the audit trail of one record, newest first.
func (r *SQLiteRepository) History(ctx context.Context, recordID int64) ([]core.RecordHistory, error) {
	return r.queryHistory(ctx, `SELECT `+historyColumns+` FROM records_history
		WHERE record_id = ? ORDER BY update_time DESC, id DESC`, recordID)
}

// ListHistory returns the audit trail of the whole ledger, newest first.
// A limit of zero or less returns everything.
func (r *SQLiteRepository) ListHistory(ctx context.Context, limit int) ([]core.RecordHistory, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.queryHistory(ctx, `SELECT `+historyColumns+` FROM records_history
		WHERE operation_type IN ('UPDATE', 'DELETE')
		ORDER BY update_time DESC, id DESC LIMIT ?`, limit)
}

// Statistics aggregates the live records.
func (r *SQLiteRepository) Statistics(ctx context.Context) (core.Statistics, error) {
	var s core.Statistics
	err := r.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(amount_cents), 0),
			COALESCE(SUM(CASE WHEN payment_type = 0 THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN payment_type = 1 THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN payment_type = 2 THEN amount_cents ELSE 0 END), 0),
			COALESCE(MAX(amount_cents), 0),
			COALESCE(MIN(amount_cents), 0)
		FROM records WHERE is_deleted = 0`).Scan(
		&s.TotalCount,
		&s.TotalAmount.Cents,
		&s.CashAmount.Cents,
		&s.WeChatAmount.Cents,
		&s.InternalAmount.Cents,
		&s.Max.Cents,
		&s.Min.Cents,
	)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("query statistics: %w", err)
	}
	return s, nil
}

// PendingSync returns up to limit records, deleted ones included, whose
// latest change has not been mirrored yet. Oldest changes come first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Record, error) {
	return r.queryRecords(ctx, `SELECT `+recordColumns+` FROM records
		WHERE sync_status != 'synced' ORDER BY update_time ASC, id ASC LIMIT ?`, limit)
}

// MarkSynced records that version of a record was mirrored. A record
// changed since that version stays pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE records SET sync_status = 'synced', synced_at = ?
		WHERE id = ? AND version = ?`, r.timestamp(), id, version)
	if err != nil {
		return fmt.Errorf("mark record %d synced: %w", id, err)
	}
	return nil
}

// MarkSyncError records a failed mirror attempt. The record stays pending.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE records SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark record %d sync error: %w", id, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func insertRecord(ctx context.Context, db execer, rec core.Record, ts string) (int64, error) {
	res, err := db.ExecContext(ctx, `INSERT INTO records
		(guest_name, amount_cents, amount_chinese, item_description, payment_type, remark, create_time, update_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.GuestName, rec.Amount.Cents, rec.AmountChinese, rec.ItemDescription,
		int(rec.PaymentType), rec.Remark, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func insertHistory(ctx context.Context, db execer, recordID int64, old core.RecordValues, next *core.RecordValues, op core.Operation, updatedBy, ts, desc string) error {
	if updatedBy == "" {
		updatedBy = core.DefaultUpdatedBy
	}
	var (
		newName, newItem, newRemark sql.NullString
		newAmount, newPayment       sql.NullInt64
	)
	if next != nil {
		newName = sql.NullString{String: next.GuestName, Valid: true}
		newAmount = sql.NullInt64{Int64: next.Amount.Cents, Valid: true}
		newItem = sql.NullString{String: next.ItemDescription, Valid: true}
		newPayment = sql.NullInt64{Int64: int64(next.PaymentType), Valid: true}
		newRemark = sql.NullString{String: next.Remark, Valid: true}
	}
	_, err := db.ExecContext(ctx, `INSERT INTO records_history
		(record_id, old_guest_name, old_amount_cents, old_item_description, old_payment_type, old_remark,
		 new_guest_name, new_amount_cents, new_item_description, new_payment_type, new_remark,
		 operation_type, update_by, update_time, change_desc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recordID, old.GuestName, old.Amount.Cents, old.ItemDescription, int(old.PaymentType), old.Remark,
		newName, newAmount, newItem, newPayment, newRemark,
		string(op), updatedBy, ts, desc)
	if err != nil {
		return fmt.Errorf("insert %s history for record %d: %w", op, recordID, err)
	}
	return nil
}

func (r *SQLiteRepository) getRecord(ctx context.Context, db querier, id int64, includeDeleted bool) (core.Record, error) {
	q := `SELECT ` + recordColumns + ` FROM records WHERE id = ?`
	if !includeDeleted {
		q += ` AND is_deleted = 0`
	}
	rec, err := scanRecord(db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, fmt.Errorf("record %d: %w", id, core.ErrRecordNotFound)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) queryRecords(ctx context.Context, q string, args ...any) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) queryHistory(ctx context.Context, q string, args ...any) ([]core.RecordHistory, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []core.RecordHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func scanRecord(s rowScanner) (core.Record, error) {
	var (
		rec              core.Record
		payment          int
		created, updated string
		deleted          int
	)
	err := s.Scan(&rec.ID, &rec.GuestName, &rec.Amount.Cents, &rec.AmountChinese, &rec.ItemDescription,
		&payment, &rec.Remark, &created, &updated, &deleted, &rec.Version)
	if err != nil {
		return core.Record{}, err
	}
	rec.PaymentType = core.PaymentType(payment)
	rec.CreateTime = parseTime(created)
	rec.UpdateTime = parseTime(updated)
	rec.IsDeleted = deleted != 0
	return rec, nil
}

func scanHistory(s rowScanner) (core.RecordHistory, error) {
	var (
		h                           core.RecordHistory
		oldPayment                  int
		newName, newItem, newRemark sql.NullString
		newAmount, newPayment       sql.NullInt64
		op, ts                      string
	)
	err := s.Scan(&h.ID, &h.RecordID, &h.Old.GuestName, &h.Old.Amount.Cents, &h.Old.ItemDescription,
		&oldPayment, &h.Old.Remark, &newName, &newAmount, &newItem, &newPayment, &newRemark,
		&op, &h.UpdatedBy, &ts, &h.ChangeDesc)
	if err != nil {
		return core.RecordHistory{}, err
	}
	h.Old.PaymentType = core.PaymentType(oldPayment)
	h.Operation = core.Operation(op)
	h.UpdateTime = parseTime(ts)
	if newName.Valid {
		h.New = &core.RecordValues{
			GuestName:       newName.String,
			Amount:          core.Money{Cents: newAmount.Int64},
			ItemDescription: newItem.String,
			PaymentType:     core.PaymentType(newPayment.Int64),
			Remark:          newRemark.String,
		}
	}
	return h, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
