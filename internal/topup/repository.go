package topup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists top-up intents. Codes compare case-insensitively.
type Repository interface {
	// Create inserts t, returning ErrDuplicateCode on a code collision.
	Create(ctx context.Context, t Topup) error
	// CreateBatch inserts every intent or none of them.
	CreateBatch(ctx context.Context, batch []Topup) error
	FindOldestPending(ctx context.Context, code string) (Topup, error)
	// MarkSuccess flips id from PENDING to SUCCESS in one conditional update.
	// ok is false when the row was no longer pending.
	MarkSuccess(ctx context.Context, id string, c Completion) (Topup, bool, error)
	FindLatestByCode(ctx context.Context, code string) (Topup, error)
	LinkedToRef(ctx context.Context, refID string) (bool, error)
}

// PostgresRepository stores top-ups in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const topupColumns = `id, code, owner_id, requester_id, amount, bank_account_no, status, COALESCE(sepay_ref_id, ''), completed_at, created_at`

const uniqueViolation = "23505"

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Create inserts a pending top-up.
func (r *PostgresRepository) Create(ctx context.Context, t Topup) error {
	return insertTopup(ctx, r.db, t)
}

// CreateBatch inserts batch inside one transaction.
func (r *PostgresRepository) CreateBatch(ctx context.Context, batch []Topup) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin topup batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range batch {
		if err := insertTopup(ctx, tx, t); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertTopup(ctx context.Context, db execer, t Topup) error {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `INSERT INTO topups (id, code, owner_id, requester_id, amount, bank_account_no, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, t.Code, t.OwnerID, t.RequesterID, t.Amount, t.BankAccountNo, string(t.Status), t.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateCode
	}
	return err
}

// FindOldestPending selects the earliest pending top-up with code.
func (r *PostgresRepository) FindOldestPending(ctx context.Context, code string) (Topup, error) {
	return scanTopup(r.db.QueryRow(ctx, `SELECT `+topupColumns+` FROM topups
        WHERE upper(code) = upper($1) AND status = $2
        ORDER BY created_at, id LIMIT 1`, code, string(StatusPending)))
}

// MarkSuccess is guarded by status = PENDING; the racing loser affects zero rows.
func (r *PostgresRepository) MarkSuccess(ctx context.Context, id string, c Completion) (Topup, bool, error) {
	topupID, err := uuid.Parse(id)
	if err != nil {
		return Topup{}, false, err
	}
	t, err := scanTopup(r.db.QueryRow(ctx, `
        UPDATE topups
        SET status = $2, sepay_ref_id = $3, completed_at = $4,
            amount = CASE WHEN $5::bigint > 0 THEN $5::bigint ELSE amount END
        WHERE id = $1 AND status = $6
        RETURNING `+topupColumns,
		topupID, string(StatusSuccess), c.RefID, c.CompletedAt.UTC(), c.Amount, string(StatusPending)))
	if errors.Is(err, ErrNotFound) {
		return Topup{}, false, nil
	}
	if err != nil {
		return Topup{}, false, fmt.Errorf("mark topup %s success: %w", id, err)
	}
	return t, true, nil
}

// FindLatestByCode returns the most recently created top-up with code.
func (r *PostgresRepository) FindLatestByCode(ctx context.Context, code string) (Topup, error) {
	return scanTopup(r.db.QueryRow(ctx, `SELECT `+topupColumns+` FROM topups
        WHERE upper(code) = upper($1) ORDER BY created_at DESC, id DESC LIMIT 1`, code))
}

// LinkedToRef reports whether any top-up was completed by refID.
func (r *PostgresRepository) LinkedToRef(ctx context.Context, refID string) (bool, error) {
	var linked bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM topups WHERE sepay_ref_id = $1)`, refID).Scan(&linked)
	return linked, err
}

func scanTopup(row pgx.Row) (Topup, error) {
	var (
		t           Topup
		id          uuid.UUID
		status      string
		completedAt *time.Time
	)
	if err := row.Scan(&id, &t.Code, &t.OwnerID, &t.RequesterID, &t.Amount, &t.BankAccountNo, &status,
		&t.SepayRefID, &completedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Topup{}, ErrNotFound
		}
		return Topup{}, err
	}
	t.ID = id.String()
	t.Status = Status(status)
	if completedAt != nil {
		utc := completedAt.UTC()
		t.CompletedAt = &utc
	}
	return t, nil
}
