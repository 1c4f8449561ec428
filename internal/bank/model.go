package bank

import (
	"errors"
	"time"
)

// Type is the direction of a movement relative to the monitored account.
type Type string

const (
	TypeCredit Type = "CREDIT"
	TypeDebit  Type = "DEBIT"
)

// ErrNotFound is returned when no transaction carries the requested ref id.
var ErrNotFound = errors.New("bank transaction not found")

// Transaction is one movement reported by the banking gateway. RefID is the
// identity; Seq is the store-assigned insertion order used to break txTime ties.
type Transaction struct {
	Seq          int64
	RefID        string
	Gateway      string
	AccountNo    string
	Type         Type
	Amount       int64
	Balance      int64
	Description  string
	DetectedCode string
	TxTime       time.Time
	RawPayload   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NetAmount is the signed effect of the movement on the account.
func (t Transaction) NetAmount() int64 {
	if t.Type == TypeDebit {
		return -t.Amount
	}
	return t.Amount
}

// After reports whether t sorts after other in "latest transaction" order.
func (t Transaction) After(other Transaction) bool {
	if !t.TxTime.Equal(other.TxTime) {
		return t.TxTime.After(other.TxTime)
	}
	return t.Seq > other.Seq
}

// UpsertResult reports the stored row and whether this call created it.
type UpsertResult struct {
	Transaction Transaction
	Created     bool
}

// HistoryQuery selects a time-bounded page, newest first. Zero Type means any.
type HistoryQuery struct {
	From   time.Time
	To     time.Time
	Type   Type
	Offset int
	Limit  int
}

// offset treats a negative offset as the first row.
func (q HistoryQuery) offset() int {
	if q.Offset < 0 {
		return 0
	}
	return q.Offset
}

// Page is one slice of a history listing.
type Page struct {
	Items []Transaction
	Total int64
}
