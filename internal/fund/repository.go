package fund

import (
	"context"
	"errors"
	"time"
)

// Repository persists funds and their audit entries.
type Repository interface {
	// Ensure finds the fund by name or creates it.
	Ensure(ctx context.Context, name, purpose string) (Fund, error)
	Get(ctx context.Context, name string) (Fund, error)
	// OverwriteBalance sets the balance only when (txTime, seq) is not older
	// than the marker already stored. It reports whether the row changed.
	OverwriteBalance(ctx context.Context, fundID string, balance int64, txTime time.Time, seq int64) (bool, error)
	EntryExistsForRef(ctx context.Context, refID string) (bool, error)
	EntryExistsForBankTx(ctx context.Context, seq int64) (bool, error)
	// InsertEntry returns false when a concurrent writer already logged the movement.
	InsertEntry(ctx context.Context, e Entry) (bool, error)
	ListEntries(ctx context.Context, fundID string) ([]Entry, error)
}

var errEmptyName = errors.New("fund name is required")
