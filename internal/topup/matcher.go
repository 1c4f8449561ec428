package topup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nexus-hr/treasury/internal/bank"
	"github.com/nexus-hr/treasury/internal/metrics"
	"github.com/nexus-hr/treasury/internal/notification"
)

// MatchOutcome classifies a Match call.
type MatchOutcome string

const (
	OutcomeMatched      MatchOutcome = "matched"
	OutcomeNotCredit    MatchOutcome = "not_credit"
	OutcomeNoCode       MatchOutcome = "no_code"
	OutcomeNoPending    MatchOutcome = "no_pending"
	OutcomeAlreadyTaken MatchOutcome = "already_taken"
	OutcomeRefLinked    MatchOutcome = "ref_already_linked"
)

// MatchResult is the result of matching one bank transaction.
type MatchResult struct {
	Outcome MatchOutcome
	Code    string
	Topup   Topup
}

// Matched reports whether this call performed the PENDING to SUCCESS transition.
func (r MatchResult) Matched() bool { return r.Outcome == OutcomeMatched }

// Matcher links incoming credits to pending top-ups.
type Matcher struct {
	repo      Repository
	extractor *Extractor
	notifier  notification.Notifier
	counters  metrics.Counters
	logger    *slog.Logger
	now       func() time.Time
}

// NewMatcher builds a matcher for codes with the given prefix. notifier and
// counters may be nil.
func NewMatcher(repo Repository, prefix string, notifier notification.Notifier, counters metrics.Counters, logger *slog.Logger) *Matcher {
	return &Matcher{
		repo:      repo,
		extractor: NewExtractor(prefix),
		notifier:  notifier,
		counters:  counters,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Match tries to complete a pending top-up from tx. Only credits qualify. The
// gateway's own code field wins over codes found in the description. Missing
// or consumed codes are reported through the outcome, never as errors.
func (m *Matcher) Match(ctx context.Context, tx bank.Transaction) (MatchResult, error) {
	if tx.Type != bank.TypeCredit {
		return MatchResult{Outcome: OutcomeNotCredit}, nil
	}

	linked, err := m.repo.LinkedToRef(ctx, tx.RefID)
	if err != nil {
		return MatchResult{}, fmt.Errorf("check topup link for %s: %w", tx.RefID, err)
	}
	if linked {
		return MatchResult{Outcome: OutcomeRefLinked}, nil
	}

	var candidates []string
	if tx.DetectedCode != "" {
		candidates = []string{m.extractor.Canonical(tx.DetectedCode)}
	} else {
		candidates = m.extractor.Candidates(tx.Description)
	}
	if len(candidates) == 0 {
		m.unmatched(ctx, tx, "")
		return MatchResult{Outcome: OutcomeNoCode}, nil
	}

	completedAt := tx.TxTime
	if completedAt.IsZero() {
		completedAt = m.now()
	}
	completion := Completion{RefID: tx.RefID, CompletedAt: completedAt}
	if tx.Amount > 0 {
		completion.Amount = tx.Amount
	}

	result := MatchResult{Outcome: OutcomeNoPending, Code: candidates[0]}
	for _, code := range candidates {
		pending, err := m.repo.FindOldestPending(ctx, code)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return MatchResult{}, fmt.Errorf("find pending topup %s: %w", code, err)
		}

		done, ok, err := m.repo.MarkSuccess(ctx, pending.ID, completion)
		if err != nil {
			return MatchResult{}, err
		}
		if !ok {
			// A concurrent delivery won the transition.
			result = MatchResult{Outcome: OutcomeAlreadyTaken, Code: code}
			continue
		}

		m.logger.Info("topup matched",
			slog.String("code", done.Code),
			slog.String("ref_id", tx.RefID),
			slog.String("owner_id", done.OwnerID),
			slog.Int64("amount", done.Amount),
		)
		m.notify(ctx, done)
		return MatchResult{Outcome: OutcomeMatched, Code: code, Topup: done}, nil
	}

	if result.Outcome == OutcomeNoPending {
		m.unmatched(ctx, tx, result.Code)
	}
	return result, nil
}

func (m *Matcher) unmatched(ctx context.Context, tx bank.Transaction, code string) {
	if m.counters != nil {
		m.counters.Incr(ctx, metrics.UnmatchedCredit)
	}
	m.logger.Info("credit not matched to a topup", slog.String("ref_id", tx.RefID), slog.String("code", code))
}

func (m *Matcher) notify(ctx context.Context, t Topup) {
	if m.notifier == nil {
		return
	}
	err := m.notifier.Send(ctx, Message(t))
	if err != nil {
		m.logger.Warn("topup notification failed", slog.String("code", t.Code), slog.Any("error", err))
	}
}

// Message renders the beneficiary notification for a completed top-up.
func Message(t Topup) notification.Message {
	return notification.Message{
		Kind:        notification.KindTopupCompleted,
		Destination: t.OwnerID,
		Body:        fmt.Sprintf("Your top-up %s of %d has been received", t.Code, t.Amount),
		Attributes:  map[string]string{"code": t.Code, "ref_id": t.SepayRefID},
	}
}
