package topup

import (
	"context"
	"strings"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	topups []Topup
}

// NewMemoryRepository constructs an in-memory repository for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, t Topup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.topups {
		if strings.EqualFold(existing.Code, t.Code) {
			return ErrDuplicateCode
		}
	}
	r.topups = append(r.topups, t)
	return nil
}

func (r *memoryRepository) CreateBatch(_ context.Context, batch []Topup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make(map[string]bool, len(r.topups)+len(batch))
	for _, existing := range r.topups {
		codes[strings.ToUpper(existing.Code)] = true
	}
	for _, t := range batch {
		code := strings.ToUpper(t.Code)
		if codes[code] {
			return ErrDuplicateCode
		}
		codes[code] = true
	}
	r.topups = append(r.topups, batch...)
	return nil
}

// FindOldestPending relies on append order matching creation order.
func (r *memoryRepository) FindOldestPending(_ context.Context, code string) (Topup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.topups {
		if t.Status == StatusPending && strings.EqualFold(t.Code, code) {
			return t, nil
		}
	}
	return Topup{}, ErrNotFound
}

func (r *memoryRepository) MarkSuccess(_ context.Context, id string, c Completion) (Topup, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.topups {
		if t.ID != id {
			continue
		}
		if t.Status != StatusPending {
			return Topup{}, false, nil
		}
		completedAt := c.CompletedAt.UTC()
		t.Status = StatusSuccess
		t.SepayRefID = c.RefID
		t.CompletedAt = &completedAt
		if c.Amount > 0 {
			t.Amount = c.Amount
		}
		r.topups[i] = t
		return t, true, nil
	}
	return Topup{}, false, nil
}

func (r *memoryRepository) FindLatestByCode(_ context.Context, code string) (Topup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.topups) - 1; i >= 0; i-- {
		if strings.EqualFold(r.topups[i].Code, code) {
			return r.topups[i], nil
		}
	}
	return Topup{}, ErrNotFound
}

func (r *memoryRepository) LinkedToRef(_ context.Context, refID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.topups {
		if refID != "" && t.SepayRefID == refID {
			return true, nil
		}
	}
	return false, nil
}
