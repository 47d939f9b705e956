package activationcodes

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/server/models"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
)

// MemoryRepository keeps codes in process memory, in issue order.
type MemoryRepository struct {
	mu     sync.Mutex
	clock  timex.Clock
	nextID int64
	codes  []*models.ActivationCode
}

// NewMemoryRepository returns an empty store reading time from clock.
func NewMemoryRepository(clock timex.Clock) *MemoryRepository {
	return &MemoryRepository{clock: clock}
}

// Issue appends a new unconsumed code.
func (r *MemoryRepository) Issue(ctx context.Context, accountID, code string, expiresAt time.Time) (*models.ActivationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	ac := &models.ActivationCode{
		ID:        r.nextID,
		AccountID: accountID,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: r.clock.Now(),
	}
	r.codes = append(r.codes, ac)

	return cloneCode(ac), nil
}

// InvalidateAllUnconsumed burns every unconsumed code of the account.
func (r *MemoryRepository) InvalidateAllUnconsumed(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var n int64
	for _, ac := range r.codes {
		if ac.AccountID == accountID && !ac.Consumed {
			ac.Consumed = true
			t := now
			ac.InvalidatedAt = &t
			n++
		}
	}
	return n, nil
}

// FindValid returns the newest matching valid code or common.ErrorNotFound.
func (r *MemoryRepository) FindValid(ctx context.Context, accountID, code string) (*models.ActivationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	for i := len(r.codes) - 1; i >= 0; i-- {
		ac := r.codes[i]
		if ac.AccountID == accountID && ac.Code == code && ac.IsValidAt(now) {
			return cloneCode(ac), nil
		}
	}
	return nil, common.ErrorNotFound
}

// Consume marks the unconsumed code used or returns
// common.ErrAlreadyConsumed.
func (r *MemoryRepository) Consume(ctx context.Context, accountID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var n int
	for _, ac := range r.codes {
		if ac.AccountID == accountID && ac.Code == code && !ac.Consumed {
			ac.Consumed = true
			t := now
			ac.ConsumedAt = &t
			n++
		}
	}
	if n == 0 {
		return common.ErrAlreadyConsumed
	}
	return nil
}

// CleanupExpired drops codes that expired before olderThan.
func (r *MemoryRepository) CleanupExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.codes[:0]
	var n int64
	for _, ac := range r.codes {
		if ac.ExpiresAt.Before(olderThan) {
			n++
			continue
		}
		kept = append(kept, ac)
	}
	clear(r.codes[len(kept):])
	r.codes = kept
	return n, nil
}

// All returns a snapshot of every stored code for the account, oldest
// first.
func (r *MemoryRepository) All(accountID string) []*models.ActivationCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.ActivationCode
	for _, ac := range r.codes {
		if ac.AccountID == accountID {
			out = append(out, cloneCode(ac))
		}
	}
	return out
}

func cloneCode(ac *models.ActivationCode) *models.ActivationCode {
	c := *ac
	if ac.ConsumedAt != nil {
		t := *ac.ConsumedAt
		c.ConsumedAt = &t
	}
	if ac.InvalidatedAt != nil {
		t := *ac.InvalidatedAt
		c.InvalidatedAt = &t
	}
	return &c
}
