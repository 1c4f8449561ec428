package fund

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the named fund has not been created yet.
	ErrNotFound = errors.New("fund not found")
)

const (
	// StatusActive is the status of a fund accepting postings.
	StatusActive = "ACTIVE"
	// DefaultPurpose describes the bank-mirroring fund.
	DefaultPurpose = "Mirror of the monitored bank account balance"
)

// EntryType is the direction of an audit entry.
type EntryType string

const (
	EntryIncrease EntryType = "INCREASE"
	EntryDecrease EntryType = "DECREASE"
)

// EntryStatusApproved is the only status system-generated entries carry.
const EntryStatusApproved = "APPROVED"

// Fund is a named pool whose balance mirrors a figure reported by the bank.
// BalanceTxTime and BalanceTxSeq identify the bank transaction the balance
// was last copied from.
type Fund struct {
	ID            string
	Name          string
	Balance       int64
	Status        string
	Purpose       string
	BalanceTxTime time.Time
	BalanceTxSeq  int64
	UpdatedAt     time.Time
}

// Entry is the audit row written for one distinct bank movement.
type Entry struct {
	ID         string
	FundID     string
	BankTxSeq  int64
	BankRefID  string
	Type       EntryType
	Amount     int64
	Status     string
	CreatedBy  string
	ApprovedBy string
	CreatedAt  time.Time
}
