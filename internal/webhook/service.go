package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nexus-hr/treasury/internal/bank"
	"github.com/nexus-hr/treasury/internal/fund"
	"github.com/nexus-hr/treasury/internal/metrics"
	"github.com/nexus-hr/treasury/internal/topup"
)

// Outcome summarizes what one delivery changed.
type Outcome struct {
	Dropped       bool
	RefID         string
	Created       bool
	BalanceSynced bool
	Entry         fund.RecordResult
	Match         topup.MatchResult
}

// Service runs the ingestion pipeline: normalize, upsert, then fund sync,
// audit entry and top-up matching against the stored record.
type Service struct {
	normalizer *Normalizer
	store      bank.Store
	syncer     *fund.Synchronizer
	recorder   *fund.Recorder
	matcher    *topup.Matcher
	counters   metrics.Counters
	logger     *slog.Logger
}

// NewService wires the ingestion pipeline.
func NewService(normalizer *Normalizer, store bank.Store, syncer *fund.Synchronizer, recorder *fund.Recorder, matcher *topup.Matcher, counters metrics.Counters, logger *slog.Logger) *Service {
	if counters == nil {
		counters = metrics.NewMemoryCounters()
	}
	return &Service{
		normalizer: normalizer,
		store:      store,
		syncer:     syncer,
		recorder:   recorder,
		matcher:    matcher,
		counters:   counters,
		logger:     logger,
	}
}

// Ingest processes one delivery. Replays of the same ref id converge on the
// same state. ErrMalformedPayload and actor.ErrNoSystemActor are returned;
// a payload without identity is dropped with Outcome.Dropped set.
func (s *Service) Ingest(ctx context.Context, raw []byte) (Outcome, error) {
	tx, err := s.normalizer.Normalize(ctx, raw)
	if errors.Is(err, ErrMissingIdentity) {
		s.counters.Incr(ctx, metrics.DroppedEvent)
		s.logger.Warn("webhook dropped: no transaction identity")
		return Outcome{Dropped: true}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	stored, err := s.store.Upsert(ctx, tx)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{RefID: stored.Transaction.RefID, Created: stored.Created}

	synced, err := s.syncer.SyncAfter(ctx, stored.Transaction)
	if err != nil {
		return out, fmt.Errorf("sync fund balance: %w", err)
	}
	out.BalanceSynced = synced.Updated

	if out.Entry, err = s.recorder.Record(ctx, stored.Transaction); err != nil {
		return out, fmt.Errorf("record fund entry: %w", err)
	}

	// The stored row keeps the first delivery's type and amount, so matching
	// always sees the same identity fields.
	if out.Match, err = s.matcher.Match(ctx, stored.Transaction); err != nil {
		return out, fmt.Errorf("match topup: %w", err)
	}

	s.logger.Info("webhook processed",
		slog.String("ref_id", out.RefID),
		slog.Bool("created", out.Created),
		slog.Bool("balance_synced", out.BalanceSynced),
		slog.Bool("entry_created", out.Entry.Created),
		slog.String("match", string(out.Match.Outcome)),
	)
	return out, nil
}
