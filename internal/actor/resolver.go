package actor

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSystemActor means neither the configured system account nor any admin
// exists. Ledger entries cannot be attributed, so this is a deployment defect.
var ErrNoSystemActor = errors.New("no system actor available: create the configured system account or an admin")

// Source records which rule produced a Resolution.
type Source string

const (
	SourceConfigured Source = "configured_username"
	SourceFirstAdmin Source = "first_admin"
)

// Resolution is a resolved audit actor.
type Resolution struct {
	Actor  Actor
	Source Source
}

// Resolver picks the actor credited with system-generated ledger entries.
type Resolver struct {
	repo     Repository
	username string
}

// NewResolver builds a resolver preferring the configured username.
func NewResolver(repo Repository, username string) *Resolver {
	return &Resolver{repo: repo, username: username}
}

// Resolve walks configured username, then first admin. found is false when
// both miss; err is reserved for store failures.
func (r *Resolver) Resolve(ctx context.Context) (Resolution, bool, error) {
	if r.username != "" {
		a, err := r.repo.FindByUsername(ctx, r.username)
		switch {
		case err == nil:
			return Resolution{Actor: a, Source: SourceConfigured}, true, nil
		case !errors.Is(err, ErrNotFound):
			return Resolution{}, false, fmt.Errorf("find actor %q: %w", r.username, err)
		}
	}

	a, err := r.repo.FirstByRole(ctx, RoleAdmin)
	switch {
	case err == nil:
		return Resolution{Actor: a, Source: SourceFirstAdmin}, true, nil
	case errors.Is(err, ErrNotFound):
		return Resolution{}, false, nil
	default:
		return Resolution{}, false, fmt.Errorf("find first admin: %w", err)
	}
}

// Require is Resolve with a miss turned into ErrNoSystemActor.
func (r *Resolver) Require(ctx context.Context) (Actor, error) {
	res, found, err := r.Resolve(ctx)
	if err != nil {
		return Actor{}, err
	}
	if !found {
		return Actor{}, ErrNoSystemActor
	}
	return res.Actor, nil
}
