package bank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists bank transactions keyed by RefID.
type Store interface {
	// Upsert inserts tx or, when its RefID exists, overwrites the mutable
	// fields (balance, description, detected code, raw payload) in place.
	Upsert(ctx context.Context, tx Transaction) (UpsertResult, error)
	FindByRefID(ctx context.Context, refID string) (Transaction, error)
	// Latest returns the maximum by (TxTime, Seq); ok is false on an empty store.
	Latest(ctx context.Context) (Transaction, bool, error)
	History(ctx context.Context, q HistoryQuery) (Page, error)
}

// PostgresStore keeps transactions in the bank_transactions table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed transaction store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const txColumns = `id, ref_id, gateway, account_no, type, amount, balance, description, detected_code, tx_time, raw_payload, created_at, updated_at`

// Upsert is a single INSERT .. ON CONFLICT so concurrent deliveries of the
// same ref id serialize on the unique index.
func (s *PostgresStore) Upsert(ctx context.Context, tx Transaction) (UpsertResult, error) {
	const query = `
        INSERT INTO bank_transactions (ref_id, gateway, account_no, type, amount, balance, description, detected_code, tx_time, raw_payload)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (ref_id) DO UPDATE SET
            balance       = EXCLUDED.balance,
            description   = EXCLUDED.description,
            detected_code = EXCLUDED.detected_code,
            raw_payload   = EXCLUDED.raw_payload,
            updated_at    = now()
        RETURNING ` + txColumns + `, (xmax = 0) AS inserted`

	row := s.db.QueryRow(ctx, query, tx.RefID, tx.Gateway, tx.AccountNo, string(tx.Type), tx.Amount, tx.Balance,
		tx.Description, tx.DetectedCode, tx.TxTime.UTC(), tx.RawPayload)

	var (
		stored   Transaction
		txType   string
		inserted bool
	)
	if err := row.Scan(&stored.Seq, &stored.RefID, &stored.Gateway, &stored.AccountNo, &txType, &stored.Amount,
		&stored.Balance, &stored.Description, &stored.DetectedCode, &stored.TxTime, &stored.RawPayload,
		&stored.CreatedAt, &stored.UpdatedAt, &inserted); err != nil {
		return UpsertResult{}, fmt.Errorf("upsert bank transaction %s: %w", tx.RefID, err)
	}
	stored.Type = Type(txType)
	return UpsertResult{Transaction: stored, Created: inserted}, nil
}

// FindByRefID fetches a transaction by its gateway reference.
func (s *PostgresStore) FindByRefID(ctx context.Context, refID string) (Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRow(ctx, `SELECT `+txColumns+` FROM bank_transactions WHERE ref_id = $1`, refID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	return tx, err
}

// Latest queries the max row by tx_time with id as tie-breaker.
func (s *PostgresStore) Latest(ctx context.Context) (Transaction, bool, error) {
	tx, err := scanTransaction(s.db.QueryRow(ctx, `SELECT `+txColumns+` FROM bank_transactions ORDER BY tx_time DESC, id DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, false, nil
		}
		return Transaction{}, false, err
	}
	return tx, true, nil
}

// History lists transactions in [From, To], newest first.
func (s *PostgresStore) History(ctx context.Context, q HistoryQuery) (Page, error) {
	const where = ` FROM bank_transactions WHERE tx_time >= $1 AND tx_time <= $2 AND ($3 = '' OR type = $3)`

	var page Page
	if err := s.db.QueryRow(ctx, `SELECT count(*)`+where, q.From.UTC(), q.To.UTC(), string(q.Type)).Scan(&page.Total); err != nil {
		return Page{}, err
	}

	rows, err := s.db.Query(ctx, `SELECT `+txColumns+where+` ORDER BY tx_time DESC, id DESC LIMIT $4 OFFSET $5`,
		q.From.UTC(), q.To.UTC(), string(q.Type), q.Limit, q.offset())
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, tx)
	}
	return page, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		tx     Transaction
		txType string
	)
	if err := row.Scan(&tx.Seq, &tx.RefID, &tx.Gateway, &tx.AccountNo, &txType, &tx.Amount, &tx.Balance,
		&tx.Description, &tx.DetectedCode, &tx.TxTime, &tx.RawPayload, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	tx.Type = Type(txType)
	tx.TxTime = tx.TxTime.UTC()
	return tx, nil
}

// compile-time check
var _ Store = (*PostgresStore)(nil)

// clock is swapped in tests.
var clock = func() time.Time { return time.Now().UTC() }
