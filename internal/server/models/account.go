// Package models defines server-side data models persisted in the database.
package models

import "time"

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusPending   AccountStatus = "PENDING"
	StatusActive    AccountStatus = "ACTIVE"
	StatusInactive  AccountStatus = "INACTIVE"
	StatusSuspended AccountStatus = "SUSPENDED"
)

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Account is a registered identity.
type Account struct {
	// ID is assigned at creation and never changes.
	ID string
	// Email is stored in canonical (trimmed, lower-case) form.
	Email string
	// PasswordHash is the opaque credential hash. It must never leave the
	// service.
	PasswordHash string `json:"-"`
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// ActivatedAt is set exactly once, by a successful activation.
	ActivatedAt *time.Time
}

// IsPending reports whether the account still awaits activation.
func (a *Account) IsPending() bool {
	return a.Status == StatusPending
}
