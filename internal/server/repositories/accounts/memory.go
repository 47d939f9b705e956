package accounts

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/server/models"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. It is safe for
// concurrent use and hands out copies, never its own records.
type MemoryRepository struct {
	mu      sync.RWMutex
	clock   timex.Clock
	byID    map[string]*models.Account
	byEmail map[string]string
}

// NewMemoryRepository returns an empty store reading time from clock.
func NewMemoryRepository(clock timex.Clock) *MemoryRepository {
	return &MemoryRepository{
		clock:   clock,
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
}

// Create stores a PENDING account unless the canonical email is taken.
func (r *MemoryRepository) Create(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	email = common.NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, common.ErrDuplicateEmail
	}

	now := r.clock.Now()
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Status:       models.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[account.ID] = account
	r.byEmail[email] = account.ID

	return cloneAccount(account), nil
}

// FindByEmail returns a copy of the account or common.ErrorNotFound.
func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[common.NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneAccount(r.byID[id]), nil
}

// FindByID returns a copy of the account or common.ErrorNotFound.
func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneAccount(account), nil
}

// Activate moves a PENDING account to ACTIVE.
func (r *MemoryRepository) Activate(ctx context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if account.Status != models.StatusPending {
		return nil, common.ErrInvalidStateTransition
	}

	now := r.clock.Now()
	account.Status = models.StatusActive
	account.ActivatedAt = &now
	account.UpdatedAt = now

	return cloneAccount(account), nil
}

// Lock only checks the account exists; the memory manager serialises
// transactions itself.
func (r *MemoryRepository) Lock(ctx context.Context, id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrorNotFound
	}
	return nil
}

// SetStatus forces a status, standing in for the administrative actions
// that deactivate or suspend accounts.
func (r *MemoryRepository) SetStatus(id string, status models.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	account.Status = status
	account.UpdatedAt = r.clock.Now()
	return nil
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	if a.ActivatedAt != nil {
		t := *a.ActivatedAt
		c.ActivatedAt = &t
	}
	return &c
}
