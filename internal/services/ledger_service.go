package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"giftbook/internal/amqp"
	"giftbook/internal/cache"
	"giftbook/internal/core"
	"giftbook/internal/metrics"
	"giftbook/internal/search"
)

const (
	statsCacheKey     = "statistics"
	defaultCacheSize  = 128
	defaultCacheTTL   = 5 * time.Minute
	defaultPageSize   = 15
	maxPageSize       = 500
	defaultHistoryCap = 200
)

// LedgerStore is the persistence the ledger service relies on.
type LedgerStore interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, rec core.Record) (core.Record, error)
	BatchInsert(ctx context.Context, recs []core.Record) ([]int64, error)
	Get(ctx context.Context, id int64) (core.Record, error)
	List(ctx context.Context) ([]core.Record, error)
	ListPage(ctx context.Context, page, size int) (core.Page[core.Record], error)
	RecordPage(ctx context.Context, id int64, size int) (int, error)
	Search(ctx context.Context, c search.Criteria) ([]core.Record, error)
	Update(ctx context.Context, id int64, v core.RecordValues, amountChinese, updatedBy string) (core.Record, error)
	SoftDelete(ctx context.Context, id int64, updatedBy string) (core.Record, error)
	History(ctx context.Context, recordID int64) ([]core.RecordHistory, error)
	ListHistory(ctx context.Context, limit int) ([]core.RecordHistory, error)
	Statistics(ctx context.Context) (core.Statistics, error)
}

// EventPublisher announces ledger changes to the mirror worker.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

// LedgerOption customizes a LedgerService.
type LedgerOption func(*LedgerService)

// WithPublisher enables change events. Without it writes stay local.
func WithPublisher(p EventPublisher) LedgerOption {
	return func(s *LedgerService) { s.publisher = p }
}

// WithCaches replaces the default statistics and search caches.
func WithCaches(stats cache.Cache[core.Statistics], results cache.Cache[[]core.Record]) LedgerOption {
	return func(s *LedgerService) {
		s.statsCache = stats
		s.searchCache = results
	}
}

// LedgerService orchestrates record operations across SQLite, the caches
// and AMQP.
type LedgerService struct {
	store       LedgerStore
	publisher   EventPublisher
	statsCache  cache.Cache[core.Statistics]
	searchCache cache.Cache[[]core.Record]
}

func NewLedgerService(store LedgerStore, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:       store,
		statsCache:  cache.NewLRUCache[core.Statistics](1, defaultCacheTTL),
		searchCache: cache.NewLRUCache[[]core.Record](defaultCacheSize, defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports whether the ledger database is reachable.
func (s *LedgerService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Create validates the input, stores it with its Chinese amount and
// announces it.
func (s *LedgerService) Create(ctx context.Context, in core.RecordInput) (core.Record, error) {
	rec, err := newRecord(in)
	if err != nil {
		return core.Record{}, err
	}

	saved, err := s.store.Insert(ctx, rec)
	if err != nil {
		return core.Record{}, fmt.Errorf("save record: %w", err)
	}

	s.invalidate()
	metrics.RecordOperations.WithLabelValues("create").Inc()
	metrics.AmountRecorded.WithLabelValues(saved.PaymentType.Label()).Add(float64(saved.Amount.Cents))
	s.publish(ctx, saved.ID, amqp.EventCreated)
	return saved, nil
}

// CreateBatch validates every input first and stores them all in one
// transaction. A single invalid input rejects the whole batch.
func (s *LedgerService) CreateBatch(ctx context.Context, inputs []core.RecordInput) ([]int64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	recs := make([]core.Record, 0, len(inputs))
	for i, in := range inputs {
		rec, err := newRecord(in)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		recs = append(recs, rec)
	}

	ids, err := s.store.BatchInsert(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("save batch: %w", err)
	}

	s.invalidate()
	metrics.RecordOperations.WithLabelValues("batch_create").Add(float64(len(ids)))
	for i, id := range ids {
		metrics.AmountRecorded.WithLabelValues(recs[i].PaymentType.Label()).Add(float64(recs[i].Amount.Cents))
		s.publish(ctx, id, amqp.EventCreated)
	}
	return ids, nil
}

// Get returns a live record.
func (s *LedgerService) Get(ctx context.Context, id int64) (core.Record, error) {
	return s.store.Get(ctx, id)
}

// List returns every live record, newest first, or ordered by guest name
// using Chinese collation when byName is set.
func (s *LedgerService) List(ctx context.Context, byName bool) ([]core.Record, error) {
	recs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if byName {
		SortByGuestName(recs)
	}
	return recs, nil
}

// ListPage returns one page of live records. Out of range sizes fall back
// to the default page size.
func (s *LedgerService) ListPage(ctx context.Context, page, size int) (core.Page[core.Record], error) {
	return s.store.ListPage(ctx, page, clampPageSize(size))
}

// RecordPage returns the page on which a record appears for the given size.
func (s *LedgerService) RecordPage(ctx context.Context, id int64, size int) (int, error) {
	return s.store.RecordPage(ctx, id, clampPageSize(size))
}

// Search returns live records matching the criteria. Results are cached
// until the next write.
func (s *LedgerService) Search(ctx context.Context, c search.Criteria) ([]core.Record, error) {
	c.Keyword = search.Normalize(c.Keyword)
	key := criteriaKey(c)
	if recs, ok := s.searchCache.Get(key); ok {
		return recs, nil
	}

	recs, err := s.store.Search(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	metrics.Searches.Inc()
	s.searchCache.Set(key, recs)
	return recs, nil
}

// Update replaces the editable fields of a record and records the change
// in its history.
func (s *LedgerService) Update(ctx context.Context, id int64, in core.RecordInput, updatedBy string) (core.Record, error) {
	rec, err := newRecord(in)
	if err != nil {
		return core.Record{}, err
	}

	updated, err := s.store.Update(ctx, id, rec.Values(), rec.AmountChinese, updatedByOrDefault(updatedBy))
	if err != nil {
		return core.Record{}, fmt.Errorf("update record: %w", err)
	}

	s.invalidate()
	metrics.RecordOperations.WithLabelValues("update").Inc()
	s.publish(ctx, id, amqp.EventUpdated)
	return updated, nil
}

// Delete soft deletes a record and records its last values in history.
func (s *LedgerService) Delete(ctx context.Context, id int64, updatedBy string) error {
	if _, err := s.store.SoftDelete(ctx, id, updatedByOrDefault(updatedBy)); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	s.invalidate()
	metrics.RecordOperations.WithLabelValues("delete").Inc()
	s.publish(ctx, id, amqp.EventDeleted)
	return nil
}

// History returns the audit trail of one record, newest first.
func (s *LedgerService) History(ctx context.Context, id int64) ([]core.RecordHistory, error) {
	return s.store.History(ctx, id)
}

// AllHistory returns the latest updates and deletions across the ledger.
func (s *LedgerService) AllHistory(ctx context.Context, limit int) ([]core.RecordHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryCap
	}
	return s.store.ListHistory(ctx, limit)
}

// Statistics aggregates the live records. The result is cached until the
// next write.
func (s *LedgerService) Statistics(ctx context.Context) (core.Statistics, error) {
	if stats, ok := s.statsCache.Get(statsCacheKey); ok {
		return stats, nil
	}
	stats, err := s.store.Statistics(ctx)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("compute statistics: %w", err)
	}
	s.statsCache.Set(statsCacheKey, stats)
	return stats, nil
}

func (s *LedgerService) invalidate() {
	s.statsCache.Purge()
	s.searchCache.Purge()
}

func (s *LedgerService) publish(ctx context.Context, id int64, typ amqp.EventType) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordEvent(ctx, amqp.NewRecordEvent(id, typ)); err != nil {
		metrics.EventPublishErrors.WithLabelValues(string(typ)).Inc()
		slog.ErrorContext(ctx, "Failed to publish record event",
			"id", id,
			"operation", typ,
			"error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(typ)).Inc()
}

// SortByGuestName orders records by guest name using Chinese (pinyin)
// collation, keeping the existing order among equal names.
func SortByGuestName(recs []core.Record) {
	col := collate.New(language.Chinese)
	slices.SortStableFunc(recs, func(a, b core.Record) int {
		return col.CompareString(a.GuestName, b.GuestName)
	})
}

func newRecord(in core.RecordInput) (core.Record, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.Record{}, err
	}
	return core.Record{
		GuestName:       in.GuestName,
		Amount:          in.Amount,
		AmountChinese:   in.Amount.Chinese(),
		ItemDescription: in.ItemDescription,
		PaymentType:     in.PaymentType,
		Remark:          in.Remark,
	}, nil
}

func updatedByOrDefault(by string) string {
	if by = strings.TrimSpace(by); by == "" {
		return core.DefaultUpdatedBy
	}
	return by
}

func clampPageSize(size int) int {
	if size < 1 || size > maxPageSize {
		return defaultPageSize
	}
	return size
}

func criteriaKey(c search.Criteria) string {
	var b strings.Builder
	b.WriteString(c.Keyword)
	writeMoney := func(m *core.Money) {
		b.WriteByte('|')
		if m != nil {
			b.WriteString(strconv.FormatInt(m.Cents, 10))
		}
	}
	writeMoney(c.MinAmount)
	writeMoney(c.MaxAmount)
	b.WriteByte('|')
	if c.PaymentType != nil {
		b.WriteString(strconv.Itoa(int(*c.PaymentType)))
	}
	for _, t := range []time.Time{c.StartDate, c.EndDate} {
		b.WriteByte('|')
		if !t.IsZero() {
			b.WriteString(t.Format(time.DateOnly))
		}
	}
	return b.String()
}

// IsNotFound reports whether err means the record does not exist or was deleted.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrRecordNotFound)
}
