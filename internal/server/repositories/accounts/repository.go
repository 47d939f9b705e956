// Package accounts declares the account store contract and its PostgreSQL
// and in-memory implementations.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophactivate/internal/server/models"
)

// Repository persists accounts. Every mutation is a single-row atomic
// operation; composing them is up to the caller.
type Repository interface {
	// Create stores a new PENDING account. Emails are compared in canonical
	// form regardless of status; a clash returns common.ErrDuplicateEmail.
	Create(ctx context.Context, email, passwordHash string) (*models.Account, error)

	// FindByEmail returns common.ErrorNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)

	// FindByID returns common.ErrorNotFound when no account matches.
	FindByID(ctx context.Context, id string) (*models.Account, error)

	// Activate moves a PENDING account to ACTIVE and stamps ActivatedAt.
	// Any other current status yields common.ErrInvalidStateTransition.
	Activate(ctx context.Context, id string) (*models.Account, error)

	// Lock takes a row lock on the account for the rest of the enclosing
	// transaction. Outside a transaction it only checks existence.
	Lock(ctx context.Context, id string) error
}
