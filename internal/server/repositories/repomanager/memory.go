package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophactivate/internal/dbx"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/activationcodes"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
)

// MemoryRepositoryManager serves process-local repositories. Its
// transactions do not roll back; they only run one at a time, which is
// enough to keep multi-step updates from interleaving.
type MemoryRepositoryManager struct {
	txMu  sync.Mutex
	accs  *accounts.MemoryRepository
	codes *activationcodes.MemoryRepository
}

func NewMemoryRepositoryManager(clock timex.Clock) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		accs:  accounts.NewMemoryRepository(clock),
		codes: activationcodes.NewMemoryRepository(clock),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

// Accounts ignores db; every caller shares the same store.
func (m *MemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository { return m.accs }

func (m *MemoryRepositoryManager) ActivationCodes(dbx.DBTX) activationcodes.Repository {
	return m.codes
}

func (m *MemoryRepositoryManager) Conn() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }

// AccountStore exposes the concrete account store, for seeding and
// administrative status changes.
func (m *MemoryRepositoryManager) AccountStore() *accounts.MemoryRepository { return m.accs }

// CodeStore exposes the concrete code store.
func (m *MemoryRepositoryManager) CodeStore() *activationcodes.MemoryRepository { return m.codes }
