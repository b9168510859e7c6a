package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giftbook/internal/amqp"
	"giftbook/internal/core"
	"giftbook/internal/sheets"
	"giftbook/internal/sheets/memory"
	"giftbook/internal/storage"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[int64]core.Record
	status  map[int64]string
}

func newFakeStore(recs ...core.Record) *fakeStore {
	s := &fakeStore{records: map[int64]core.Record{}, status: map[int64]string{}}
	for _, r := range recs {
		s.records[r.ID] = r
		s.status[r.ID] = "pending"
	}
	return s
}

func (s *fakeStore) GetIncludingDeleted(_ context.Context, id int64) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return core.Record{}, core.ErrRecordNotFound
	}
	return r, nil
}

func (s *fakeStore) PendingSync(_ context.Context, limit int) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Record
	for id := int64(1); id <= int64(len(s.records)) && len(out) < limit; id++ {
		if s.status[id] != "synced" {
			out = append(out, s.records[id])
		}
	}
	return out, nil
}

func (s *fakeStore) MarkSynced(_ context.Context, id, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records[id].Version == version {
		s.status[id] = "synced"
	}
	return nil
}

func (s *fakeStore) MarkSyncError(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[id] = "error"
	return nil
}

var (
	created = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	later   = created.Add(time.Hour)
)

func gift(id int64, name string, cents int64) core.Record {
	m := core.Money{Cents: cents}
	return core.Record{
		ID:            id,
		GuestName:     name,
		Amount:        m,
		AmountChinese: m.Chinese(),
		PaymentType:   core.PaymentWeChat,
		CreateTime:    created,
		UpdateTime:    created,
		Version:       1,
	}
}

func TestHandleRecordEventMirrorsRecord(t *testing.T) {
	store := newFakeStore(gift(1, "张三", 20000))
	mirror := memory.New()
	w := NewSyncWorker(store, mirror, 10)

	err := w.HandleRecordEvent(context.Background(), amqp.NewRecordEvent(1, amqp.EventCreated))
	require.NoError(t, err)

	changes := mirror.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, int64(1), changes[0].RecordID)
	assert.Equal(t, "created", changes[0].Operation)
	assert.Equal(t, "200.00", changes[0].Amount)
	assert.Equal(t, "贰佰元整", changes[0].AmountChinese)
	assert.Equal(t, "微信", changes[0].Payment)
	assert.Equal(t, "synced", store.status[1])
}

func TestHandleRecordEventMissingRecordIsSkipped(t *testing.T) {
	mirror := memory.New()
	w := NewSyncWorker(newFakeStore(), mirror, 10)

	err := w.HandleRecordEvent(context.Background(), amqp.NewRecordEvent(99, amqp.EventDeleted))
	require.NoError(t, err)
	assert.Empty(t, mirror.Changes())
}

func TestHandleRecordEventMirrorFailure(t *testing.T) {
	store := newFakeStore(gift(1, "张三", 100))
	mirror := memory.New()
	mirror.FailWith(errors.New("sheets unavailable"))
	w := NewSyncWorker(store, mirror, 10)

	err := w.HandleRecordEvent(context.Background(), amqp.NewRecordEvent(1, amqp.EventUpdated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets unavailable")
	assert.Equal(t, "error", store.status[1])
}

func TestProcessPendingInfersOperation(t *testing.T) {
	updated := gift(2, "李四", 500)
	updated.UpdateTime = later
	updated.Version = 2
	deleted := gift(3, "王五", 800)
	deleted.IsDeleted = true
	deleted.UpdateTime = later
	deleted.Version = 2

	store := newFakeStore(gift(1, "张三", 100), updated, deleted)
	mirror := memory.New()
	w := NewSyncWorker(store, mirror, 10)

	n, err := w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	changes := mirror.Changes()
	require.Len(t, changes, 3)
	assert.Equal(t, "created", changes[0].Operation)
	assert.Equal(t, "updated", changes[1].Operation)
	assert.Equal(t, "deleted", changes[2].Operation)

	n, err = w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	store := newFakeStore(gift(1, "a", 1), gift(2, "b", 2), gift(3, "c", 3))
	mirror := memory.New()
	w := NewSyncWorker(store, mirror, 2)

	n, err := w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "pending", store.status[3])

	require.NoError(t, w.StartupSyncCheck(context.Background()))
	assert.Equal(t, "synced", store.status[3])
}

func TestProcessPendingKeepsGoingAfterFailure(t *testing.T) {
	store := newFakeStore(gift(1, "a", 1), gift(2, "b", 2))
	mirror := memory.New()
	mirror.FailWith(errors.New("quota"))
	w := NewSyncWorker(store, mirror, 10)

	n, err := w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "error", store.status[1])
	assert.Equal(t, "error", store.status[2])

	mirror.FailWith(nil)
	n, err = w.ProcessPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunPeriodicStopsOnCancel(t *testing.T) {
	store := newFakeStore(gift(1, "a", 1))
	mirror := memory.New()
	w := NewSyncWorker(store, mirror, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunPeriodic(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return len(mirror.Changes()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunPeriodic did not stop after cancel")
	}
}

func TestSweepAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	m := core.Money{Cents: 66600}
	saved, err := repo.Insert(ctx, core.Record{GuestName: "赵六", Amount: m, AmountChinese: m.Chinese()})
	require.NoError(t, err)

	mirror := memory.New()
	w := NewSyncWorker(repo, mirror, 10)

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, mirror.Changes(), 1)
	assert.Equal(t, saved.ID, mirror.Changes()[0].RecordID)
	assert.Equal(t, "666.00", mirror.Changes()[0].Amount)
	assert.Equal(t, "现金", mirror.Changes()[0].Payment)

	pending, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessPendingSameSecondUpdate(t *testing.T) {
	rec := gift(1, "张三", 100)
	rec.Version = 2

	store := newFakeStore(rec)
	mirror := memory.New()
	w := NewSyncWorker(store, mirror, 10)

	_, err := w.ProcessPending(context.Background())
	require.NoError(t, err)
	require.Len(t, mirror.Changes(), 1)
	assert.Equal(t, "updated", mirror.Changes()[0].Operation)
}

// editingMirror applies a ledger edit while a change row is being written,
// the way the server can between the worker's read and its mark.
type editingMirror struct {
	*memory.Store
	edit func()
}

func (m *editingMirror) AppendChange(ctx context.Context, row sheets.ChangeRow) (string, error) {
	ref, err := m.Store.AppendChange(ctx, row)
	if m.edit != nil {
		m.edit()
		m.edit = nil
	}
	return ref, err
}

func TestSweepMirrorsEditMadeDuringSync(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	m := core.Money{Cents: 10000}
	saved, err := repo.Insert(ctx, core.Record{GuestName: "张三", Amount: m, AmountChinese: m.Chinese()})
	require.NoError(t, err)

	mirror := &editingMirror{Store: memory.New()}
	mirror.edit = func() {
		edited := core.Money{Cents: 20000}
		_, err := repo.Update(ctx, saved.ID, core.RecordValues{GuestName: "李四", Amount: edited}, edited.Chinese(), "")
		require.NoError(t, err)
	}
	w := NewSyncWorker(repo, mirror, 10)

	n, err := w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = w.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	changes := mirror.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, "created", changes[0].Operation)
	assert.Equal(t, "张三", changes[0].GuestName)
	assert.Equal(t, "updated", changes[1].Operation)
	assert.Equal(t, "李四", changes[1].GuestName)
	assert.Equal(t, "200.00", changes[1].Amount)

	pending, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
