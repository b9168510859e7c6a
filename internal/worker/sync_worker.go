package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"giftbook/internal/amqp"
	"giftbook/internal/core"
	"giftbook/internal/metrics"
	"giftbook/internal/sheets"
)

// RecordStore is the part of the ledger storage the worker needs.
type RecordStore interface {
	GetIncludingDeleted(ctx context.Context, id int64) (core.Record, error)
	PendingSync(ctx context.Context, limit int) ([]core.Record, error)
	MarkSynced(ctx context.Context, id, version int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker mirrors ledger changes from SQLite to a spreadsheet change log.
type SyncWorker struct {
	store     RecordStore
	changes   sheets.ChangeLogWriter
	batchSize int
}

func NewSyncWorker(store RecordStore, changes sheets.ChangeLogWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncWorker{
		store:     store,
		changes:   changes,
		batchSize: batchSize,
	}
}

// HandleRecordEvent mirrors the record named by a broker event. Events for
// records that no longer exist are acknowledged without mirroring.
func (w *SyncWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	slog.InfoContext(ctx, "Processing record event",
		"id", ev.ID,
		"operation", ev.Type)

	rec, err := w.store.GetIncludingDeleted(ctx, ev.ID)
	if errors.Is(err, core.ErrRecordNotFound) {
		slog.WarnContext(ctx, "Record for event not found, skipping", "id", ev.ID)
		metrics.MirrorSyncs.WithLabelValues(metrics.ResultSkipped).Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("get record from storage: %w", err)
	}

	return w.mirror(ctx, rec, ev.Type)
}

// ProcessPending mirrors records whose latest change is not yet in the
// spreadsheet. It backs up the broker in case events are lost and returns
// how many records were mirrored.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger pending sweep when the worker starts, to
// recover from worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

// RunPeriodic sweeps pending records every interval until ctx is done.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, error) {
	start := time.Now()
	defer func() { metrics.MirrorSweepDuration.Observe(time.Since(start).Seconds()) }()

	pending, err := w.store.PendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending records: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending records", "count", len(pending))

	synced := 0
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.mirror(ctx, rec, pendingEventType(rec)); err != nil {
			slog.ErrorContext(ctx, "Failed to sync record", "id", rec.ID, "error", err)
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", len(pending)-synced)
	return synced, nil
}

func (w *SyncWorker) mirror(ctx context.Context, rec core.Record, op amqp.EventType) error {
	ref, err := w.changes.AppendChange(ctx, ChangeRow(rec, op))
	if err != nil {
		metrics.MirrorSyncs.WithLabelValues(metrics.ResultError).Inc()
		if markErr := w.store.MarkSyncError(ctx, rec.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", rec.ID, "error", markErr)
		}
		return fmt.Errorf("append change to sheets: %w", err)
	}

	metrics.MirrorSyncs.WithLabelValues(metrics.ResultSuccess).Inc()
	// The row is already written; a failed mark only causes a duplicate row on the next sweep.
	if err := w.store.MarkSynced(ctx, rec.ID, rec.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", rec.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced record",
		"id", rec.ID,
		"operation", op,
		"sheets_ref", ref,
		"amount_cents", rec.Amount.Cents)
	return nil
}

// ChangeRow converts a record into a change log row.
func ChangeRow(rec core.Record, op amqp.EventType) sheets.ChangeRow {
	return sheets.ChangeRow{
		RecordID:        rec.ID,
		Operation:       string(op),
		GuestName:       rec.GuestName,
		Amount:          rec.Amount.Yuan().StringFixed(2),
		AmountChinese:   rec.AmountChinese,
		ItemDescription: rec.ItemDescription,
		Payment:         rec.PaymentType.Label(),
		Remark:          rec.Remark,
		ChangedAt:       rec.UpdateTime,
	}
}

// pendingEventType infers the last change of a record that reached the
// sweep without an event.
func pendingEventType(rec core.Record) amqp.EventType {
	switch {
	case rec.IsDeleted:
		return amqp.EventDeleted
	case rec.Version > 1:
		return amqp.EventUpdated
	default:
		return amqp.EventCreated
	}
}
