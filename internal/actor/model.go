package actor

import (
	"errors"
	"time"
)

const (
	// RoleAdmin marks accounts allowed to sign off ledger entries.
	RoleAdmin = "admin"
	// RoleStaff marks regular operator accounts.
	RoleStaff = "staff"
)

var (
	// ErrNotFound is returned by repositories when no actor matches.
	ErrNotFound = errors.New("actor not found")
	// ErrDuplicateUsername is returned when the username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
)

// Actor is an account that can be held responsible for a ledger entry.
type Actor struct {
	ID           string
	Username     string
	Role         string
	PasswordHash []byte
	CreatedAt    time.Time
}
