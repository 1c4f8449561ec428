package actor

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists actors.
type Repository interface {
	Create(ctx context.Context, a Actor) error
	FindByID(ctx context.Context, id string) (Actor, error)
	FindByUsername(ctx context.Context, username string) (Actor, error)
	// FirstByRole returns the oldest actor holding role.
	FirstByRole(ctx context.Context, role string) (Actor, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed actor repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectActor = `SELECT id, username, role, password_hash, created_at FROM actors`

// Create inserts a new actor.
func (r *PostgresRepository) Create(ctx context.Context, a Actor) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO actors (id, username, role, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)`, id, a.Username, a.Role, a.PasswordHash, a.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateUsername
	}
	return err
}

// FindByID fetches an actor by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Actor, error) {
	actorID, err := uuid.Parse(id)
	if err != nil {
		return Actor{}, ErrNotFound
	}
	return scanActor(r.db.QueryRow(ctx, selectActor+` WHERE id = $1`, actorID))
}

// FindByUsername fetches an actor by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (Actor, error) {
	return scanActor(r.db.QueryRow(ctx, selectActor+` WHERE username = $1`, username))
}

// FirstByRole fetches the earliest created actor with the given role.
func (r *PostgresRepository) FirstByRole(ctx context.Context, role string) (Actor, error) {
	return scanActor(r.db.QueryRow(ctx, selectActor+` WHERE role = $1 ORDER BY created_at, id LIMIT 1`, role))
}

func scanActor(row pgx.Row) (Actor, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		a         Actor
	)
	if err := row.Scan(&id, &a.Username, &a.Role, &a.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Actor{}, ErrNotFound
		}
		return Actor{}, err
	}
	a.ID = id.String()
	a.CreatedAt = createdAt.UTC()
	return a, nil
}
