package bank

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestUpsertIsIdempotentByRefID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.Upsert(ctx, Transaction{RefID: "92704", Type: TypeCredit, Amount: 500, Balance: 1_000, Description: "first", TxTime: base})
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := s.Upsert(ctx, Transaction{RefID: "92704", Type: TypeDebit, Amount: 9, Balance: 1_200, Description: "second", TxTime: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, second.Created)

	stored, err := s.FindByRefID(ctx, "92704")
	require.NoError(t, err)
	assert.Equal(t, first.Transaction.Seq, stored.Seq)
	assert.Equal(t, int64(1_200), stored.Balance)
	assert.Equal(t, "second", stored.Description)
	// identity fields stay as first inserted
	assert.Equal(t, TypeCredit, stored.Type)
	assert.Equal(t, int64(500), stored.Amount)
	assert.True(t, stored.TxTime.Equal(base))
}

func TestConcurrentUpsertsYieldOneRow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	created := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Upsert(ctx, Transaction{RefID: "dup", Type: TypeCredit, Amount: 1, TxTime: base})
			if err != nil {
				t.Errorf("upsert: %v", err)
				return
			}
			created <- res.Created
		}()
	}
	wg.Wait()
	close(created)

	count := 0
	for c := range created {
		if c {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestLatestBreaksTiesByInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _ = s.Upsert(ctx, Transaction{RefID: "late", TxTime: base.Add(time.Minute), Balance: 2})
	_, _ = s.Upsert(ctx, Transaction{RefID: "tie-a", TxTime: base, Balance: 3})
	_, _ = s.Upsert(ctx, Transaction{RefID: "tie-b", TxTime: base.Add(time.Minute), Balance: 4})

	latest, ok, err := s.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tie-b", latest.RefID)
}

func TestHistoryWindowAndPaging(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = s.Upsert(ctx, Transaction{RefID: fmt.Sprintf("r%d", i), Type: TypeCredit, TxTime: base.Add(time.Duration(i) * time.Hour)})
	}
	_, _ = s.Upsert(ctx, Transaction{RefID: "debit", Type: TypeDebit, TxTime: base.Add(90 * time.Minute)})

	page, err := s.History(ctx, HistoryQuery{From: base.Add(time.Hour), To: base.Add(4 * time.Hour), Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "r4", page.Items[0].RefID)
	assert.Equal(t, "r3", page.Items[1].RefID)

	credits, err := s.History(ctx, HistoryQuery{From: base, To: base.Add(time.Hour * 2), Type: TypeCredit, Offset: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), credits.Total)
	require.Len(t, credits.Items, 2)
	assert.Equal(t, "r1", credits.Items[0].RefID)
}

func TestHistoryOutOfRangeOffsets(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = s.Upsert(ctx, Transaction{RefID: fmt.Sprintf("r%d", i), Type: TypeCredit, TxTime: base.Add(time.Duration(i) * time.Minute)})
	}

	page, err := s.History(ctx, HistoryQuery{From: base, To: base.Add(time.Hour), Offset: -7, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "r2", page.Items[0].RefID)

	page, err = s.History(ctx, HistoryQuery{From: base, To: base.Add(time.Hour), Offset: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = s.History(ctx, HistoryQuery{From: base, To: base.Add(time.Hour), Offset: math.MaxInt, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(3), page.Total)
}

func TestNetAmount(t *testing.T) {
	assert.Equal(t, int64(-5), Transaction{Type: TypeDebit, Amount: 5}.NetAmount())
	assert.Equal(t, int64(5), Transaction{Type: TypeCredit, Amount: 5}.NetAmount())
}
