package topup

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a top-up intent.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusExpired Status = "EXPIRED"
)

var (
	// ErrNotFound is returned when no top-up carries the requested code.
	ErrNotFound = errors.New("topup not found")
	// ErrDuplicateCode signals a generated code collided with an existing one.
	ErrDuplicateCode = errors.New("topup code already exists")
	// ErrInvalidAmount rejects non-positive requested amounts.
	ErrInvalidAmount = &ValidationError{Field: "amount", Message: "amount must be positive"}
)

// ValidationError is a user-correctable problem with a create request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Topup is a tracked request to credit OwnerID via a bank transfer carrying Code.
type Topup struct {
	ID            string
	Code          string
	OwnerID       string
	RequesterID   string
	Amount        int64
	BankAccountNo string
	Status        Status
	SepayRefID    string
	CompletedAt   *time.Time
	CreatedAt     time.Time
}

// Completion carries the facts recorded when a pending top-up is paid.
type Completion struct {
	RefID       string
	CompletedAt time.Time
	// Amount replaces the requested amount when positive.
	Amount int64
}
