package fund

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists funds and entries in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a Postgres-backed fund repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fundColumns = `id, name, balance, status, purpose, balance_tx_time, balance_tx_seq, updated_at`

// Ensure guarantees a fund exists for the provided name.
func (r *PostgresRepository) Ensure(ctx context.Context, name, purpose string) (Fund, error) {
	if name == "" {
		return Fund{}, errEmptyName
	}
	if _, err := r.db.Exec(ctx, `INSERT INTO funds (id, name, status, purpose) VALUES ($1, $2, $3, $4)
        ON CONFLICT (name) DO NOTHING`, uuid.New(), name, StatusActive, purpose); err != nil {
		return Fund{}, fmt.Errorf("ensure fund %s: %w", name, err)
	}
	return r.Get(ctx, name)
}

// Get fetches a fund by name.
func (r *PostgresRepository) Get(ctx context.Context, name string) (Fund, error) {
	var (
		f  Fund
		id uuid.UUID
	)
	err := r.db.QueryRow(ctx, `SELECT `+fundColumns+` FROM funds WHERE name = $1`, name).
		Scan(&id, &f.Name, &f.Balance, &f.Status, &f.Purpose, &f.BalanceTxTime, &f.BalanceTxSeq, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Fund{}, ErrNotFound
		}
		return Fund{}, err
	}
	f.ID = id.String()
	return f, nil
}

// OverwriteBalance is a single conditional UPDATE. A writer holding an older
// snapshot re-checks the marker after acquiring the row lock, so it cannot
// clobber a newer balance.
func (r *PostgresRepository) OverwriteBalance(ctx context.Context, fundID string, balance int64, txTime time.Time, seq int64) (bool, error) {
	id, err := uuid.Parse(fundID)
	if err != nil {
		return false, err
	}
	cmd, err := r.db.Exec(ctx, `
        UPDATE funds
        SET balance = $2, balance_tx_time = $3, balance_tx_seq = $4, updated_at = now()
        WHERE id = $1 AND (balance_tx_time, balance_tx_seq) <= ($3, $4)`,
		id, balance, txTime.UTC(), seq)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// EntryExistsForRef reports whether the ref id already has an audit row.
func (r *PostgresRepository) EntryExistsForRef(ctx context.Context, refID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fund_transactions WHERE bank_ref_id = $1)`, refID).Scan(&exists)
	return exists, err
}

// EntryExistsForBankTx reports whether the bank row already has an audit row.
func (r *PostgresRepository) EntryExistsForBankTx(ctx context.Context, seq int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fund_transactions WHERE bank_transaction_id = $1)`, seq).Scan(&exists)
	return exists, err
}

// InsertEntry writes the audit row, yielding to any concurrent duplicate.
func (r *PostgresRepository) InsertEntry(ctx context.Context, e Entry) (bool, error) {
	ids, err := parseUUIDs(e.ID, e.FundID, e.CreatedBy, e.ApprovedBy)
	if err != nil {
		return false, err
	}
	cmd, err := r.db.Exec(ctx, `
        INSERT INTO fund_transactions (id, fund_id, bank_transaction_id, bank_ref_id, type, amount, status, created_by, approved_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT DO NOTHING`,
		ids[0], ids[1], e.BankTxSeq, e.BankRefID, string(e.Type), e.Amount, e.Status, ids[2], ids[3], e.CreatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("insert fund entry %s: %w", e.BankRefID, err)
	}
	return cmd.RowsAffected() == 1, nil
}

// ListEntries returns the fund's audit rows, newest first.
func (r *PostgresRepository) ListEntries(ctx context.Context, fundID string) ([]Entry, error) {
	fid, err := uuid.Parse(fundID)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
        SELECT id, fund_id, bank_transaction_id, bank_ref_id, type, amount, status, created_by, approved_by, created_at
        FROM fund_transactions WHERE fund_id = $1 ORDER BY created_at DESC`, fid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                                  Entry
			id, entryFund, createdBy, approved uuid.UUID
			entryType                          string
		)
		if err := rows.Scan(&id, &entryFund, &e.BankTxSeq, &e.BankRefID, &entryType, &e.Amount, &e.Status, &createdBy, &approved, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ID, e.FundID, e.CreatedBy, e.ApprovedBy = id.String(), entryFund.String(), createdBy.String(), approved.String()
		e.Type = EntryType(entryType)
		out = append(out, e)
	}
	return out, rows.Err()
}

func parseUUIDs(values ...string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("parse id %q: %w", v, err)
		}
		out[i] = id
	}
	return out, nil
}
