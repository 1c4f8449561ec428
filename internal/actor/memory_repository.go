package actor

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	actors []Actor
}

// NewMemoryRepository builds an in-memory actor store for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Create(_ context.Context, a Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.actors {
		if existing.Username == a.Username {
			return ErrDuplicateUsername
		}
	}
	r.actors = append(r.actors, a)
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Actor, error) {
	return r.find(func(a Actor) bool { return a.ID == id })
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (Actor, error) {
	return r.find(func(a Actor) bool { return a.Username == username })
}

// FirstByRole relies on insertion order standing in for created_at.
func (r *memoryRepository) FirstByRole(_ context.Context, role string) (Actor, error) {
	return r.find(func(a Actor) bool { return a.Role == role })
}

func (r *memoryRepository) find(match func(Actor) bool) (Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.actors {
		if match(a) {
			return a, nil
		}
	}
	return Actor{}, ErrNotFound
}
