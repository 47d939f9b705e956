// Package common defines shared constants and sentinel errors used across
// the server, consumer and CLI. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrStorageUnavailable wraps unexpected storage failures. The operation
	// is aborted and the caller should retry later.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Registration errors.
	ErrDuplicateEmail = errors.New("email already registered")

	// Authentication errors. Both carry the same text so that responses do
	// not reveal whether the account exists.
	ErrAccountNotFound   = errors.New("invalid email or password")
	ErrInvalidCredential = errors.New("invalid email or password")

	// Account lifecycle errors.
	ErrAlreadyActive          = errors.New("account is already activated")
	ErrInvalidStateTransition = errors.New("invalid account state transition")

	// Activation code errors.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired activation code")
	ErrAlreadyConsumed      = errors.New("activation code already consumed")

	// ErrDispatchWarning marks a failed hand-off of the activation notice.
	// It is never fatal: the account and code are already persisted.
	ErrDispatchWarning = errors.New("activation notice was not dispatched")
)

// IsAuthFailure reports whether err is one of the indistinguishable
// authentication failures.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrInvalidCredential)
}

// IsCodeFailure reports whether err means the supplied activation code
// cannot be used, without telling why.
func IsCodeFailure(err error) bool {
	return errors.Is(err, ErrInvalidOrExpiredCode) || errors.Is(err, ErrAlreadyConsumed)
}
