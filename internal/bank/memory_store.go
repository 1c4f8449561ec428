package bank

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	seq   int64
	byRef map[string]Transaction
}

// NewMemoryStore creates a concurrency-safe in-memory store for tests and local runs.
func NewMemoryStore() Store {
	return &memoryStore{byRef: make(map[string]Transaction)}
}

func (s *memoryStore) Upsert(_ context.Context, tx Transaction) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := clock()
	if existing, ok := s.byRef[tx.RefID]; ok {
		existing.Balance = tx.Balance
		existing.Description = tx.Description
		existing.DetectedCode = tx.DetectedCode
		existing.RawPayload = tx.RawPayload
		existing.UpdatedAt = now
		s.byRef[tx.RefID] = existing
		return UpsertResult{Transaction: existing}, nil
	}

	s.seq++
	tx.Seq = s.seq
	tx.TxTime = tx.TxTime.UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	s.byRef[tx.RefID] = tx
	return UpsertResult{Transaction: tx, Created: true}, nil
}

func (s *memoryStore) FindByRefID(_ context.Context, refID string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.byRef[refID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (s *memoryStore) Latest(_ context.Context) (Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		latest Transaction
		found  bool
	)
	for _, tx := range s.byRef {
		if !found || tx.After(latest) {
			latest, found = tx, true
		}
	}
	return latest, found, nil
}

func (s *memoryStore) History(_ context.Context, q HistoryQuery) (Page, error) {
	s.mu.RLock()
	matched := make([]Transaction, 0)
	for _, tx := range s.byRef {
		if tx.TxTime.Before(q.From) || tx.TxTime.After(q.To) {
			continue
		}
		if q.Type != "" && tx.Type != q.Type {
			continue
		}
		matched = append(matched, tx)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].After(matched[j]) })

	page := Page{Total: int64(len(matched))}
	offset := q.offset()
	if offset >= len(matched) {
		return page, nil
	}
	end := len(matched)
	if q.Limit > 0 && q.Limit < end-offset {
		end = offset + q.Limit
	}
	page.Items = matched[offset:end]
	return page, nil
}
