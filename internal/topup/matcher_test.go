package topup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-hr/treasury/internal/bank"
	"github.com/nexus-hr/treasury/internal/logging"
	"github.com/nexus-hr/treasury/internal/metrics"
	"github.com/nexus-hr/treasury/internal/notification"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

var paidAt = time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC)

func seedPending(t *testing.T, repo Repository, code string, amount int64) Topup {
	t.Helper()
	tp := Topup{ID: "id-" + code, Code: code, OwnerID: "emp-1", RequesterID: "hr-1", Amount: amount, Status: StatusPending, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), tp))
	return tp
}

func credit(ref, description string, amount int64) bank.Transaction {
	return bank.Transaction{RefID: ref, Type: bank.TypeCredit, Amount: amount, Description: description, TxTime: paidAt}
}

func TestMatchCompletesPendingTopup(t *testing.T) {
	repo := NewMemoryRepository()
	seedPending(t, repo, "NEX-ABC123", 50_000)
	notifier := &recordingNotifier{}
	m := NewMatcher(repo, "NEX", notifier, nil, logging.Discard())

	res, err := m.Match(context.Background(), credit("92704", "CHUYEN TIEN NEX-ABC123 THANKS", 50_000))
	require.NoError(t, err)
	require.True(t, res.Matched())
	assert.Equal(t, StatusSuccess, res.Topup.Status)
	assert.Equal(t, "92704", res.Topup.SepayRefID)
	require.NotNil(t, res.Topup.CompletedAt)
	assert.True(t, res.Topup.CompletedAt.Equal(paidAt))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "emp-1", notifier.sent[0].Destination)
}

func TestMatchDuplicateDeliveryIsNoop(t *testing.T) {
	repo := NewMemoryRepository()
	seedPending(t, repo, "NEX-ABC123", 50_000)
	counters := metrics.NewMemoryCounters()
	m := NewMatcher(repo, "NEX", nil, counters, logging.Discard())
	tx := credit("92704", "nex_abc123", 50_000)

	first, err := m.Match(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, first.Matched())

	second, err := m.Match(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefLinked, second.Outcome)

	snap, _ := counters.Snapshot(context.Background(), metrics.UnmatchedCredit)
	assert.Zero(t, snap[metrics.UnmatchedCredit])
}

func TestMatchConcurrentDeliveriesTransitionOnce(t *testing.T) {
	repo := NewMemoryRepository()
	seedPending(t, repo, "NEX-ABC123", 50_000)
	notifier := &recordingNotifier{}
	m := NewMatcher(repo, "NEX", notifier, nil, logging.Discard())

	const workers = 16
	results := make(chan MatchResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.Match(context.Background(), credit("92704", "NEX-ABC123", 50_000))
			if err != nil {
				t.Errorf("match: %v", err)
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	matched := 0
	for res := range results {
		if res.Matched() {
			matched++
		}
	}
	assert.Equal(t, 1, matched)
	assert.Len(t, notifier.sent, 1)

	tp, err := repo.FindLatestByCode(context.Background(), "NEX-ABC123")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, tp.Status)
	assert.NotNil(t, tp.CompletedAt)
}

func TestMatchIgnoresDebit(t *testing.T) {
	repo := NewMemoryRepository()
	seedPending(t, repo, "NEX-ABC123", 50_000)
	m := NewMatcher(repo, "NEX", nil, nil, logging.Discard())

	tx := credit("1", "NEX-ABC123", 50_000)
	tx.Type = bank.TypeDebit
	res, err := m.Match(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotCredit, res.Outcome)

	tp, _ := repo.FindLatestByCode(context.Background(), "NEX-ABC123")
	assert.Equal(t, StatusPending, tp.Status)
}

func TestMatchPrefersGatewayCode(t *testing.T) {
	repo := NewMemoryRepository()
	seedPending(t, repo, "NEX-AAAAAA", 1)
	seedPending(t, repo, "NEX-BBBBBB", 1)
	m := NewMatcher(repo, "NEX", nil, nil, logging.Discard())

	tx := credit("1", "NEX-AAAAAA", 0)
	tx.DetectedCode = "nex-bbbbbb"
	res, err := m.Match(context.Background(), tx)
	require.NoError(t, err)
	require.True(t, res.Matched())
	assert.Equal(t, "NEX-BBBBBB", res.Topup.Code)
	// zero realized amount keeps the requested one
	assert.Equal(t, int64(1), res.Topup.Amount)
}

func TestMatchRealizedAmountAndFallbackTime(t *testing.T) {
	repo := NewMemoryRepository()
	seedPending(t, repo, "NEX-ABC123", 50_000)
	m := NewMatcher(repo, "NEX", nil, nil, logging.Discard())
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	tx := credit("1", "NEX-ABC123", 49_000)
	tx.TxTime = time.Time{}
	res, err := m.Match(context.Background(), tx)
	require.NoError(t, err)
	require.True(t, res.Matched())
	assert.Equal(t, int64(49_000), res.Topup.Amount)
	assert.True(t, res.Topup.CompletedAt.Equal(now))
}

func TestMatchCodeWithoutPrefix(t *testing.T) {
	repo := NewMemoryRepository()
	seedPending(t, repo, "NEX-ABC123", 50_000)
	m := NewMatcher(repo, "NEX", nil, nil, logging.Discard())

	res, err := m.Match(context.Background(), credit("1", "chuyen khoan abc123", 50_000))
	require.NoError(t, err)
	require.True(t, res.Matched())
	assert.Equal(t, "NEX-ABC123", res.Topup.Code)
}

func TestMatchAmountBeyondInt32(t *testing.T) {
	repo := NewMemoryRepository()
	seedPending(t, repo, "NEX-ABC123", 50_000)
	m := NewMatcher(repo, "NEX", nil, nil, logging.Discard())

	res, err := m.Match(context.Background(), credit("1", "NEX-ABC123", 2_200_000_000))
	require.NoError(t, err)
	require.True(t, res.Matched())
	assert.Equal(t, int64(2_200_000_000), res.Topup.Amount)
}

func TestMatchUnknownOrMissingCode(t *testing.T) {
	repo := NewMemoryRepository()
	counters := metrics.NewMemoryCounters()
	m := NewMatcher(repo, "NEX", nil, counters, logging.Discard())

	res, err := m.Match(context.Background(), credit("1", "no code here", 1))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoCode, res.Outcome)

	res, err = m.Match(context.Background(), credit("2", "NEX-QQQQQQ", 1))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoPending, res.Outcome)
	assert.Equal(t, "NEX-QQQQQQ", res.Code)

	snap, _ := counters.Snapshot(context.Background(), metrics.UnmatchedCredit)
	assert.Equal(t, int64(2), snap[metrics.UnmatchedCredit])
}

func TestMatchSkipsConsumedAndExpired(t *testing.T) {
	repo := NewMemoryRepository()
	expired := Topup{ID: "x", Code: "NEX-EXPIRE", OwnerID: "o", Amount: 1, Status: StatusExpired, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), expired))
	m := NewMatcher(repo, "NEX", nil, nil, logging.Discard())

	res, err := m.Match(context.Background(), credit("1", "NEX-EXPIRE", 1))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoPending, res.Outcome)
}
