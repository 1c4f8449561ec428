package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo Repository, username, role string) Actor {
	t.Helper()
	a := Actor{ID: username + "-id", Username: username, Role: role, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestResolvePrefersConfiguredUsername(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, "alice", RoleAdmin)
	sys := seed(t, repo, "system", RoleStaff)

	res, found, err := NewResolver(repo, "system").Resolve(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sys.ID, res.Actor.ID)
	assert.Equal(t, SourceConfigured, res.Source)
}

func TestResolveFallsBackToFirstAdmin(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, "bob", RoleStaff)
	first := seed(t, repo, "alice", RoleAdmin)
	seed(t, repo, "carol", RoleAdmin)

	res, found, err := NewResolver(repo, "system").Resolve(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, res.Actor.ID)
	assert.Equal(t, SourceFirstAdmin, res.Source)
}

func TestRequireFailsWithoutAnyAdmin(t *testing.T) {
	repo := NewMemoryRepository()
	seed(t, repo, "bob", RoleStaff)

	r := NewResolver(repo, "system")
	_, found, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	_, err = r.Require(context.Background())
	assert.ErrorIs(t, err, ErrNoSystemActor)
}
