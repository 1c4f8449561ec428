package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nexus-hr/treasury/internal/bank"
	"github.com/nexus-hr/treasury/internal/metrics"
)

var (
	// ErrMalformedPayload means the body is not a JSON object.
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrMissingIdentity means neither the gateway id nor a reference code was sent.
	ErrMissingIdentity = errors.New("webhook payload has no transaction identity")
)

// timeLayouts are tried in order; zone-less layouts use the bank's location.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"02/01/2006 15:04:05",
	"02-01-2006 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006",
	"2006-01-02",
}

// Normalizer turns raw gateway payloads into canonical bank transactions.
type Normalizer struct {
	loc      *time.Location
	counters metrics.Counters
	logger   *slog.Logger
	now      func() time.Time
}

// NewNormalizer builds a normalizer reading zone-less timestamps in loc.
func NewNormalizer(loc *time.Location, counters metrics.Counters, logger *slog.Logger) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if counters == nil {
		counters = metrics.NewMemoryCounters()
	}
	return &Normalizer{loc: loc, counters: counters, logger: logger, now: time.Now}
}

// Normalize parses raw and fills defaults. It fails only for non-JSON input
// (ErrMalformedPayload) or a payload without identity (ErrMissingIdentity).
func (n *Normalizer) Normalize(ctx context.Context, raw []byte) (bank.Transaction, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return bank.Transaction{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	refID := string(p.ID)
	if refID == "" || refID == "0" {
		refID = string(p.ReferenceCode)
	}
	if refID == "" {
		return bank.Transaction{}, ErrMissingIdentity
	}

	txType := bank.TypeDebit
	if strings.EqualFold(strings.TrimSpace(p.TransferType), "in") {
		txType = bank.TypeCredit
	}

	if !p.TransferAmount.Valid || !p.Accumulated.Valid {
		n.logger.Warn("webhook amount defaulted",
			slog.String("ref_id", refID),
			slog.Bool("transfer_amount_valid", p.TransferAmount.Valid),
			slog.Bool("accumulated_valid", p.Accumulated.Valid),
		)
	}
	amount := p.TransferAmount.Value
	if amount < 0 {
		amount = -amount
	}

	description := strings.TrimSpace(p.Content)
	if description == "" {
		description = strings.TrimSpace(p.Description)
	}

	return bank.Transaction{
		RefID:        refID,
		Gateway:      strings.TrimSpace(p.Gateway),
		AccountNo:    strings.TrimSpace(p.AccountNumber),
		Type:         txType,
		Amount:       amount,
		Balance:      p.Accumulated.Value,
		Description:  description,
		DetectedCode: strings.TrimSpace(p.Code),
		TxTime:       n.parseTime(ctx, refID, p.TransactionDate),
		RawPayload:   string(raw),
	}, nil
}

func (n *Normalizer) parseTime(ctx context.Context, refID, value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, n.loc); err == nil {
			return t.UTC()
		}
	}
	n.counters.Incr(ctx, metrics.DateFallback)
	n.logger.Warn("webhook transaction date unparseable, using current time",
		slog.String("ref_id", refID),
		slog.String("transaction_date", value),
	)
	return n.now().UTC()
}
