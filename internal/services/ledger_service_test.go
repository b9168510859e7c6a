package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giftbook/internal/amqp"
	"giftbook/internal/core"
	"giftbook/internal/search"
	"giftbook/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.RecordEvent
	err    error
}

func (p *recordingPublisher) PublishRecordEvent(_ context.Context, ev *amqp.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *ev)
	return nil
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// countingStore counts statistics queries to observe caching.
type countingStore struct {
	*storage.SQLiteRepository
	statsCalls  int
	searchCalls int
}

func (s *countingStore) Statistics(ctx context.Context) (core.Statistics, error) {
	s.statsCalls++
	return s.SQLiteRepository.Statistics(ctx)
}

func (s *countingStore) Search(ctx context.Context, c search.Criteria) ([]core.Record, error) {
	s.searchCalls++
	return s.SQLiteRepository.Search(ctx, c)
}

func newTestService(t *testing.T, opts ...LedgerOption) (*LedgerService, *countingStore) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	store := &countingStore{SQLiteRepository: repo}
	return NewLedgerService(store, opts...), store
}

func input(name string, cents int64, pt core.PaymentType) core.RecordInput {
	return core.RecordInput{GuestName: name, Amount: core.Money{Cents: cents}, PaymentType: pt}
}

func TestLedgerService_CreateComputesChineseAmount(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	rec, err := svc.Create(ctx, core.RecordInput{
		GuestName:       "  张三 ",
		Amount:          core.Money{Cents: 100050},
		ItemDescription: "红包",
		PaymentType:     core.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "张三", rec.GuestName)
	assert.Equal(t, "壹仟元伍角", rec.AmountChinese)
	assert.Equal(t, []amqp.EventType{amqp.EventCreated}, pub.types())
}

func TestLedgerService_CreateRejectsInvalidInput(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	_, err := svc.Create(ctx, input("   ", 100, core.PaymentCash))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyGuestName)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "guestName")

	_, err = svc.Create(ctx, input("李四", 100, core.PaymentType(7)))
	assert.ErrorIs(t, err, core.ErrInvalidPaymentType)

	_, err = svc.Create(ctx, input("李四", -1, core.PaymentCash))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	assert.Empty(t, pub.types())
}

func TestLedgerService_PublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, _ := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	rec, err := svc.Create(ctx, input("王五", 5000, core.PaymentWeChat))
	require.NoError(t, err)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "王五", got.GuestName)
}

func TestLedgerService_CreateBatchIsAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateBatch(ctx, []core.RecordInput{
		input("张三", 100, core.PaymentCash),
		input("", 200, core.PaymentCash),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 2")
	assert.ErrorIs(t, err, core.ErrEmptyGuestName)

	recs, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, recs)

	ids, err := svc.CreateBatch(ctx, []core.RecordInput{
		input("张三", 100, core.PaymentCash),
		input("李四", 200, core.PaymentWeChat),
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	ids, err = svc.CreateBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLedgerService_UpdateAndDeleteWriteHistory(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _ := newTestService(t, WithPublisher(pub))
	ctx := context.Background()

	rec, err := svc.Create(ctx, input("张三", 10000, core.PaymentCash))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, rec.ID, input("张三", 20000, core.PaymentWeChat), "")
	require.NoError(t, err)
	assert.Equal(t, "贰佰元整", updated.AmountChinese)

	require.NoError(t, svc.Delete(ctx, rec.ID, "admin"))

	_, err = svc.Get(ctx, rec.ID)
	assert.True(t, IsNotFound(err))

	hist, err := svc.History(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, core.OpDelete, hist[0].Operation)
	assert.Equal(t, "admin", hist[0].UpdatedBy)
	assert.Nil(t, hist[0].New)
	assert.Equal(t, core.OpUpdate, hist[1].Operation)
	assert.Equal(t, core.DefaultUpdatedBy, hist[1].UpdatedBy)
	assert.Equal(t, int64(10000), hist[1].Old.Amount.Cents)
	require.NotNil(t, hist[1].New)
	assert.Equal(t, int64(20000), hist[1].New.Amount.Cents)

	all, err := svc.AllHistory(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.Equal(t, []amqp.EventType{amqp.EventCreated, amqp.EventUpdated, amqp.EventDeleted}, pub.types())

	err = svc.Delete(ctx, rec.ID, "")
	assert.True(t, IsNotFound(err))
	_, err = svc.Update(ctx, 9999, input("x", 1, core.PaymentCash), "")
	assert.True(t, IsNotFound(err))
}

func TestLedgerService_StatisticsCachedUntilWrite(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, input("张三", 10000, core.PaymentCash))
	require.NoError(t, err)

	st, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalCount)
	_, err = svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.statsCalls)

	_, err = svc.Create(ctx, input("李四", 30000, core.PaymentWeChat))
	require.NoError(t, err)

	st, err = svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.statsCalls)
	assert.Equal(t, 2, st.TotalCount)
	assert.Equal(t, int64(40000), st.TotalAmount.Cents)
	assert.Equal(t, int64(20000), st.Average().Cents)
	assert.Equal(t, int64(30000), st.WeChatAmount.Cents)
}

func TestLedgerService_SearchCachedByNormalizedKeyword(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, input("张三", 20000, core.PaymentCash))
	require.NoError(t, err)
	_, err = svc.Create(ctx, input("李四", 50000, core.PaymentCash))
	require.NoError(t, err)

	recs, err := svc.Search(ctx, search.Criteria{Keyword: "张三"})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	recs, err = svc.Search(ctx, search.Criteria{Keyword: "  张三  "})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, store.searchCalls)

	recs, err = svc.Search(ctx, search.Criteria{Keyword: "500"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "李四", recs[0].GuestName)

	require.NoError(t, svc.Delete(ctx, recs[0].ID, ""))
	recs, err = svc.Search(ctx, search.Criteria{Keyword: "500"})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLedgerService_PagingClampsSize(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := svc.Create(ctx, input("宾客", int64(i+1)*100, core.PaymentCash))
		require.NoError(t, err)
	}

	page, err := svc.ListPage(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 15)

	page, err = svc.ListPage(ctx, 2, 15)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)

	oldest := page.Items[len(page.Items)-1]
	n, err := svc.RecordPage(ctx, oldest.ID, 15)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSortByGuestName(t *testing.T) {
	recs := []core.Record{
		{ID: 1, GuestName: "张三"},
		{ID: 2, GuestName: "阿明"},
		{ID: 3, GuestName: "李四"},
		{ID: 4, GuestName: "阿明"},
	}
	SortByGuestName(recs)

	var ids []int64
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{2, 4, 3, 1}, ids)
}

func TestCriteriaKey(t *testing.T) {
	lo := core.Money{Cents: 100}
	pt := core.PaymentWeChat

	a := criteriaKey(search.Criteria{Keyword: "张"})
	b := criteriaKey(search.Criteria{Keyword: "张", MinAmount: &lo})
	c := criteriaKey(search.Criteria{Keyword: "张", MaxAmount: &lo})
	d := criteriaKey(search.Criteria{Keyword: "张", PaymentType: &pt})

	keys := map[string]bool{a: true, b: true, c: true, d: true}
	assert.Len(t, keys, 4)
}
