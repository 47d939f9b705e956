// Package activationcodes stores the single-use codes that activate
// accounts.
package activationcodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/server/models"
)

// Repository persists activation codes. Codes are never revived once
// consumed; they only disappear through CleanupExpired.
type Repository interface {
	// Issue stores a new unconsumed code. It does not touch other codes of
	// the account.
	Issue(ctx context.Context, accountID, code string, expiresAt time.Time) (*models.ActivationCode, error)

	// InvalidateAllUnconsumed burns every unconsumed code of the account and
	// reports how many were burned.
	InvalidateAllUnconsumed(ctx context.Context, accountID string) (int64, error)

	// FindValid returns the unconsumed, unexpired code matching exactly.
	// Anything else is common.ErrorNotFound.
	FindValid(ctx context.Context, accountID, code string) (*models.ActivationCode, error)

	// Consume marks a code used. Only one caller can win for a given code;
	// the rest get common.ErrAlreadyConsumed.
	Consume(ctx context.Context, accountID, code string) error

	// CleanupExpired removes codes that expired before olderThan.
	CleanupExpired(ctx context.Context, olderThan time.Time) (int64, error)
}
