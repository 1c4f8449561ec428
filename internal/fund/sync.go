package fund

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nexus-hr/treasury/internal/bank"
)

// SyncResult describes the outcome of a balance synchronization.
type SyncResult struct {
	Updated bool
	Balance int64
	RefID   string
}

// Synchronizer copies the bank's reported balance into the fund.
type Synchronizer struct {
	funds    Repository
	txs      bank.Store
	fundName string
	logger   *slog.Logger
}

// NewSynchronizer builds a synchronizer for the named fund.
func NewSynchronizer(funds Repository, txs bank.Store, fundName string, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{funds: funds, txs: txs, fundName: fundName, logger: logger}
}

// SyncAfter overwrites the fund balance when tx is the current latest
// transaction by txTime. An older tx leaves the fund untouched.
func (s *Synchronizer) SyncAfter(ctx context.Context, tx bank.Transaction) (SyncResult, error) {
	latest, ok, err := s.txs.Latest(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("find latest transaction: %w", err)
	}
	if !ok || latest.RefID != tx.RefID {
		s.logger.Debug("fund sync skipped, transaction is not latest",
			slog.String("ref_id", tx.RefID), slog.String("latest_ref_id", latest.RefID))
		return SyncResult{RefID: latest.RefID, Balance: latest.Balance}, nil
	}
	return s.apply(ctx, latest)
}

// Resync overwrites the fund balance from whatever transaction is latest.
// It is a no-op on an empty store.
func (s *Synchronizer) Resync(ctx context.Context) (SyncResult, error) {
	latest, ok, err := s.txs.Latest(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("find latest transaction: %w", err)
	}
	if !ok {
		return SyncResult{}, nil
	}
	return s.apply(ctx, latest)
}

func (s *Synchronizer) apply(ctx context.Context, latest bank.Transaction) (SyncResult, error) {
	f, err := s.funds.Ensure(ctx, s.fundName, DefaultPurpose)
	if err != nil {
		return SyncResult{}, err
	}
	updated, err := s.funds.OverwriteBalance(ctx, f.ID, latest.Balance, latest.TxTime, latest.Seq)
	if err != nil {
		return SyncResult{}, fmt.Errorf("overwrite fund balance: %w", err)
	}
	if updated {
		s.logger.Info("fund balance synchronized",
			slog.String("fund_id", f.ID),
			slog.String("ref_id", latest.RefID),
			slog.Int64("balance", latest.Balance),
		)
	}
	return SyncResult{Updated: updated, Balance: latest.Balance, RefID: latest.RefID}, nil
}
