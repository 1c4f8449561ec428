package reporting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nexus-hr/treasury/internal/bank"
	"github.com/nexus-hr/treasury/internal/metrics"
)

const (
	DefaultWindow   = 30 * 24 * time.Hour
	DefaultPageSize = 20
	MaxPageSize     = 100

	// maxPage keeps (page-1)*size within int for every allowed size.
	maxPage = math.MaxInt / MaxPageSize

	// unmatchedScanLimit bounds how many credits one unmatched report inspects.
	unmatchedScanLimit = 1000
)

// LinkChecker reports whether a bank movement completed a top-up.
type LinkChecker interface {
	LinkedToRef(ctx context.Context, refID string) (bool, error)
}

// Snapshot is the current account balance as last reported by the bank.
type Snapshot struct {
	AccountLabel string     `json:"account_label"`
	Balance      int64      `json:"balance"`
	AsOf         *time.Time `json:"as_of,omitempty"`
}

// Item is one history row.
type Item struct {
	RefID       string    `json:"ref_id"`
	Type        bank.Type `json:"type"`
	Amount      int64     `json:"amount"`
	Balance     int64     `json:"balance"`
	Description string    `json:"description"`
	TxTime      time.Time `json:"tx_time"`
}

// HistoryRequest selects a history page. Zero From/To fall back to the
// trailing window ending now. Page is 1-based.
type HistoryRequest struct {
	From time.Time
	To   time.Time
	Page int
	Size int
}

// HistoryPage is one page of history, newest first.
type HistoryPage struct {
	Items []Item    `json:"items"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
	Total int64     `json:"total"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	// Truncated is set when the window held more credits than one
	// unmatched report inspects; Total then covers only the newest ones.
	Truncated bool `json:"truncated,omitempty"`
}

// Service is the read-only query facade over stored bank movements.
type Service struct {
	txs      bank.Store
	links    LinkChecker
	counters metrics.Counters
	now      func() time.Time
}

// NewService builds the facade. A nil links disables the unmatched report;
// nil counters report no stats.
func NewService(txs bank.Store, links LinkChecker, counters metrics.Counters) *Service {
	return &Service{txs: txs, links: links, counters: counters, now: time.Now}
}

// Snapshot returns the balance carried by the latest transaction, or an
// empty snapshot when nothing has been ingested.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	latest, ok, err := s.txs.Latest(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("find latest transaction: %w", err)
	}
	if !ok {
		return Snapshot{}, nil
	}
	asOf := latest.TxTime
	return Snapshot{
		AccountLabel: accountLabel(latest.Gateway, latest.AccountNo),
		Balance:      latest.Balance,
		AsOf:         &asOf,
	}, nil
}

// History lists movements in the requested window, newest first.
func (s *Service) History(ctx context.Context, req HistoryRequest) (HistoryPage, error) {
	req = s.normalize(req)
	page, err := s.txs.History(ctx, bank.HistoryQuery{
		From:   req.From,
		To:     req.To,
		Offset: (req.Page - 1) * req.Size,
		Limit:  req.Size,
	})
	if err != nil {
		return HistoryPage{}, fmt.Errorf("list history: %w", err)
	}
	return HistoryPage{
		Items: toItems(page.Items),
		Page:  req.Page,
		Size:  req.Size,
		Total: page.Total,
		From:  req.From,
		To:    req.To,
	}, nil
}

// Unmatched lists credits in the window that did not complete any top-up.
func (s *Service) Unmatched(ctx context.Context, req HistoryRequest) (HistoryPage, error) {
	if s.links == nil {
		return HistoryPage{}, fmt.Errorf("unmatched report unavailable: no topup store")
	}
	req = s.normalize(req)
	credits, err := s.txs.History(ctx, bank.HistoryQuery{
		From:  req.From,
		To:    req.To,
		Type:  bank.TypeCredit,
		Limit: unmatchedScanLimit,
	})
	if err != nil {
		return HistoryPage{}, fmt.Errorf("list credits: %w", err)
	}

	var open []bank.Transaction
	for _, tx := range credits.Items {
		linked, err := s.links.LinkedToRef(ctx, tx.RefID)
		if err != nil {
			return HistoryPage{}, fmt.Errorf("check topup link for %s: %w", tx.RefID, err)
		}
		if !linked {
			open = append(open, tx)
		}
	}

	out := HistoryPage{
		Page:      req.Page,
		Size:      req.Size,
		Total:     int64(len(open)),
		From:      req.From,
		To:        req.To,
		Items:     []Item{},
		Truncated: credits.Total > unmatchedScanLimit,
	}
	start := (req.Page - 1) * req.Size
	if start < len(open) {
		end := min(start+req.Size, len(open))
		out.Items = toItems(open[start:end])
	}
	return out, nil
}

// Stats returns the ingestion counters.
func (s *Service) Stats(ctx context.Context) (map[string]int64, error) {
	if s.counters == nil {
		return map[string]int64{}, nil
	}
	return s.counters.Snapshot(ctx, metrics.DateFallback, metrics.DroppedEvent, metrics.UnmatchedCredit)
}

func (s *Service) normalize(req HistoryRequest) HistoryRequest {
	if req.To.IsZero() {
		req.To = s.now().UTC()
	}
	if req.From.IsZero() {
		req.From = req.To.Add(-DefaultWindow)
	}
	switch {
	case req.Page < 1:
		req.Page = 1
	case req.Page > maxPage:
		req.Page = maxPage
	}
	switch {
	case req.Size <= 0:
		req.Size = DefaultPageSize
	case req.Size > MaxPageSize:
		req.Size = MaxPageSize
	}
	return req
}

func toItems(txs []bank.Transaction) []Item {
	items := make([]Item, 0, len(txs))
	for _, tx := range txs {
		items = append(items, Item{
			RefID:       tx.RefID,
			Type:        tx.Type,
			Amount:      tx.Amount,
			Balance:     tx.Balance,
			Description: tx.Description,
			TxTime:      tx.TxTime,
		})
	}
	return items
}

func accountLabel(gateway, accountNo string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{gateway, accountNo} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " - ")
}
