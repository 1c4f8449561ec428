package fund

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryRepository struct {
	mu      sync.RWMutex
	funds   map[string]Fund
	entries []Entry
}

// NewInMemory creates a concurrency-safe in-memory fund repository.
func NewInMemory() Repository {
	return &inMemoryRepository{funds: make(map[string]Fund)}
}

func (r *inMemoryRepository) Ensure(_ context.Context, name, purpose string) (Fund, error) {
	if name == "" {
		return Fund{}, errEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.funds[name]; ok {
		return f, nil
	}
	f := Fund{ID: uuid.NewString(), Name: name, Status: StatusActive, Purpose: purpose, UpdatedAt: time.Now().UTC()}
	r.funds[name] = f
	return f, nil
}

func (r *inMemoryRepository) Get(_ context.Context, name string) (Fund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funds[name]
	if !ok {
		return Fund{}, ErrNotFound
	}
	return f, nil
}

func (r *inMemoryRepository) OverwriteBalance(_ context.Context, fundID string, balance int64, txTime time.Time, seq int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, f := range r.funds {
		if f.ID != fundID {
			continue
		}
		if txTime.Before(f.BalanceTxTime) || (txTime.Equal(f.BalanceTxTime) && seq < f.BalanceTxSeq) {
			return false, nil
		}
		f.Balance = balance
		f.BalanceTxTime = txTime
		f.BalanceTxSeq = seq
		f.UpdatedAt = time.Now().UTC()
		r.funds[name] = f
		return true, nil
	}
	return false, ErrNotFound
}

func (r *inMemoryRepository) EntryExistsForRef(_ context.Context, refID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.BankRefID == refID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryRepository) EntryExistsForBankTx(_ context.Context, seq int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.BankTxSeq == seq {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryRepository) InsertEntry(_ context.Context, e Entry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.BankRefID == e.BankRefID || existing.BankTxSeq == e.BankTxSeq {
			return false, nil
		}
	}
	r.entries = append(r.entries, e)
	return true, nil
}

func (r *inMemoryRepository) ListEntries(_ context.Context, fundID string) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].FundID == fundID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}
