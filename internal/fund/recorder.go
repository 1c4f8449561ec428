package fund

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-hr/treasury/internal/actor"
	"github.com/nexus-hr/treasury/internal/bank"
)

// SkipReason explains why no audit entry was written.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipZeroAmount     SkipReason = "zero_amount"
	SkipRefLogged      SkipReason = "ref_already_logged"
	SkipBankTxLogged   SkipReason = "bank_transaction_already_logged"
	SkipLostInsertRace SkipReason = "concurrent_insert"
)

// ActorResolver resolves the account credited with system entries.
type ActorResolver interface {
	Require(ctx context.Context) (actor.Actor, error)
}

// RecordResult reports what the recorder did for one bank transaction.
type RecordResult struct {
	Entry   Entry
	Created bool
	Skipped SkipReason
}

// Recorder writes one audit entry per distinct bank movement.
type Recorder struct {
	funds    Repository
	actors   ActorResolver
	fundName string
	logger   *slog.Logger
	now      func() time.Time
}

// NewRecorder builds an audit recorder for the named fund.
func NewRecorder(funds Repository, actors ActorResolver, fundName string, logger *slog.Logger) *Recorder {
	return &Recorder{
		funds:    funds,
		actors:   actors,
		fundName: fundName,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record logs tx into the fund unless it is a balance-only ping or has
// already been logged. A missing system actor is returned as
// actor.ErrNoSystemActor and must not be swallowed.
func (r *Recorder) Record(ctx context.Context, tx bank.Transaction) (RecordResult, error) {
	net := tx.NetAmount()
	if net == 0 {
		return RecordResult{Skipped: SkipZeroAmount}, nil
	}

	exists, err := r.funds.EntryExistsForRef(ctx, tx.RefID)
	if err != nil {
		return RecordResult{}, fmt.Errorf("check entry for ref %s: %w", tx.RefID, err)
	}
	if exists {
		return RecordResult{Skipped: SkipRefLogged}, nil
	}
	exists, err = r.funds.EntryExistsForBankTx(ctx, tx.Seq)
	if err != nil {
		return RecordResult{}, fmt.Errorf("check entry for bank tx %d: %w", tx.Seq, err)
	}
	if exists {
		return RecordResult{Skipped: SkipBankTxLogged}, nil
	}

	system, err := r.actors.Require(ctx)
	if err != nil {
		return RecordResult{}, err
	}
	f, err := r.funds.Ensure(ctx, r.fundName, DefaultPurpose)
	if err != nil {
		return RecordResult{}, err
	}

	entry := Entry{
		ID:         uuid.NewString(),
		FundID:     f.ID,
		BankTxSeq:  tx.Seq,
		BankRefID:  tx.RefID,
		Type:       EntryIncrease,
		Amount:     net,
		Status:     EntryStatusApproved,
		CreatedBy:  system.ID,
		ApprovedBy: system.ID,
		CreatedAt:  r.now(),
	}
	if net < 0 {
		entry.Type = EntryDecrease
		entry.Amount = -net
	}

	created, err := r.funds.InsertEntry(ctx, entry)
	if err != nil {
		return RecordResult{}, err
	}
	if !created {
		return RecordResult{Skipped: SkipLostInsertRace}, nil
	}

	r.logger.Info("fund entry recorded",
		slog.String("ref_id", tx.RefID),
		slog.String("type", string(entry.Type)),
		slog.Int64("amount", entry.Amount),
		slog.String("actor", system.Username),
	)
	return RecordResult{Entry: entry, Created: true}, nil
}
