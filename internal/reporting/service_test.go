package reporting

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-hr/treasury/internal/bank"
	"github.com/nexus-hr/treasury/internal/metrics"
	"github.com/nexus-hr/treasury/internal/topup"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, store bank.Store, refID string, typ bank.Type, at time.Time, balance int64) {
	t.Helper()
	_, err := store.Upsert(context.Background(), bank.Transaction{
		RefID:     refID,
		Gateway:   "MBBank",
		AccountNo: "0071",
		Type:      typ,
		Amount:    1_000,
		Balance:   balance,
		TxTime:    at,
	})
	require.NoError(t, err)
}

func newService(store bank.Store, links LinkChecker) *Service {
	svc := NewService(store, links, metrics.NewMemoryCounters())
	svc.now = func() time.Time { return now }
	return svc
}

func TestSnapshotEmpty(t *testing.T) {
	svc := newService(bank.NewMemoryStore(), nil)
	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, snap)
}

func TestSnapshotUsesLatestByTxTime(t *testing.T) {
	store := bank.NewMemoryStore()
	seed(t, store, "late", bank.TypeCredit, now.Add(-time.Hour), 150)
	seed(t, store, "early", bank.TypeCredit, now.Add(-2*time.Hour), 100)

	snap, err := newService(store, nil).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(150), snap.Balance)
	assert.Equal(t, "MBBank - 0071", snap.AccountLabel)
	require.NotNil(t, snap.AsOf)
	assert.True(t, snap.AsOf.Equal(now.Add(-time.Hour)))
}

func TestHistoryDefaultWindow(t *testing.T) {
	store := bank.NewMemoryStore()
	seed(t, store, "old", bank.TypeCredit, now.AddDate(0, 0, -31), 1)
	seed(t, store, "a", bank.TypeCredit, now.AddDate(0, 0, -10), 2)
	seed(t, store, "b", bank.TypeDebit, now.AddDate(0, 0, -1), 3)

	page, err := newService(store, nil).History(context.Background(), HistoryRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "b", page.Items[0].RefID)
	assert.Equal(t, "a", page.Items[1].RefID)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.Size)
}

func TestHistoryClampsPageSize(t *testing.T) {
	store := bank.NewMemoryStore()
	for i := 0; i < MaxPageSize+5; i++ {
		seed(t, store, fmt.Sprintf("tx-%d", i), bank.TypeCredit, now.Add(-time.Duration(i)*time.Minute), int64(i))
	}
	svc := newService(store, nil)

	page, err := svc.History(context.Background(), HistoryRequest{Size: 10_000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Size)
	assert.Len(t, page.Items, MaxPageSize)

	page, err = svc.History(context.Background(), HistoryRequest{Size: MaxPageSize, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, "tx-100", page.Items[0].RefID)
}

func TestHistoryHugePageIsEmpty(t *testing.T) {
	store := bank.NewMemoryStore()
	seed(t, store, "a", bank.TypeCredit, now.Add(-time.Hour), 1)
	svc := newService(store, topup.NewMemoryRepository())

	page, err := svc.History(context.Background(), HistoryRequest{Page: math.MaxInt64 / 50, Size: 100})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, maxPage, page.Page)

	unmatched, err := svc.Unmatched(context.Background(), HistoryRequest{Page: math.MaxInt, Size: 7})
	require.NoError(t, err)
	assert.Empty(t, unmatched.Items)
	assert.Equal(t, int64(1), unmatched.Total)
}

func TestHistoryExplicitRange(t *testing.T) {
	store := bank.NewMemoryStore()
	seed(t, store, "jan", bank.TypeCredit, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1)
	seed(t, store, "feb", bank.TypeCredit, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), 2)

	page, err := newService(store, nil).History(context.Background(), HistoryRequest{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "jan", page.Items[0].RefID)
}

func TestUnmatchedSkipsLinkedCreditsAndDebits(t *testing.T) {
	ctx := context.Background()
	store := bank.NewMemoryStore()
	topups := topup.NewMemoryRepository()
	seed(t, store, "paid", bank.TypeCredit, now.Add(-3*time.Hour), 1)
	seed(t, store, "stray", bank.TypeCredit, now.Add(-2*time.Hour), 2)
	seed(t, store, "fee", bank.TypeDebit, now.Add(-time.Hour), 3)

	require.NoError(t, topups.Create(ctx, topup.Topup{ID: "t1", Code: "NEX-ABC123", Amount: 1_000, Status: topup.StatusPending, CreatedAt: now}))
	_, ok, err := topups.MarkSuccess(ctx, "t1", topup.Completion{RefID: "paid", CompletedAt: now})
	require.NoError(t, err)
	require.True(t, ok)

	page, err := newService(store, topups).Unmatched(ctx, HistoryRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "stray", page.Items[0].RefID)
	assert.Equal(t, int64(1), page.Total)
}

func TestUnmatchedFlagsTruncatedScan(t *testing.T) {
	store := bank.NewMemoryStore()
	for i := 0; i <= unmatchedScanLimit; i++ {
		seed(t, store, fmt.Sprintf("c-%d", i), bank.TypeCredit, now.Add(-time.Duration(i+1)*time.Second), int64(i))
	}
	svc := newService(store, topup.NewMemoryRepository())

	page, err := svc.Unmatched(context.Background(), HistoryRequest{})
	require.NoError(t, err)
	assert.True(t, page.Truncated)
	assert.Equal(t, int64(unmatchedScanLimit), page.Total)

	page, err = svc.Unmatched(context.Background(), HistoryRequest{From: now.Add(-10 * time.Second), To: now})
	require.NoError(t, err)
	assert.False(t, page.Truncated)
	assert.Equal(t, int64(10), page.Total)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	counters := metrics.NewMemoryCounters()
	counters.Incr(ctx, metrics.DroppedEvent)
	counters.Incr(ctx, metrics.DroppedEvent)

	stats, err := NewService(bank.NewMemoryStore(), nil, counters).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[metrics.DroppedEvent])
	assert.Equal(t, int64(0), stats[metrics.DateFallback])
}
