package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/dbx"
	"github.com/dmitrijs2005/gophactivate/internal/server/dispatcher"
	"github.com/dmitrijs2005/gophactivate/internal/server/models"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/activationcodes"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
)

// scriptedCodes hands out the given codes in order, then repeats the last.
type scriptedCodes struct {
	mu    sync.Mutex
	clock timex.Clock
	ttl   time.Duration
	codes []string
	err   error
}

func (g *scriptedCodes) Generate() (string, time.Time, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", time.Time{}, g.err
	}
	code := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}
	return code, g.clock.Now().Add(g.ttl), nil
}

type recordingDispatcher struct {
	mu      sync.Mutex
	notices []dispatcher.Notice
	err     error
}

func (d *recordingDispatcher) Enqueue(_ context.Context, n dispatcher.Notice) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.notices = append(d.notices, n)
	return nil
}

func (d *recordingDispatcher) last() dispatcher.Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notices[len(d.notices)-1]
}

var errStorage = errors.New("connection refused")

// failingCodes wraps a code store and fails selected operations.
type failingCodes struct {
	activationcodes.Repository
	failIssue     bool
	cleanupErrors []error
	cleanupCalls  int
}

func (f *failingCodes) Issue(ctx context.Context, accountID, code string, expiresAt time.Time) (*models.ActivationCode, error) {
	if f.failIssue {
		return nil, errStorage
	}
	return f.Repository.Issue(ctx, accountID, code, expiresAt)
}

func (f *failingCodes) CleanupExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	f.cleanupCalls++
	if len(f.cleanupErrors) > 0 {
		err := f.cleanupErrors[0]
		f.cleanupErrors = f.cleanupErrors[1:]
		if err != nil {
			return 0, err
		}
	}
	return f.Repository.CleanupExpired(ctx, olderThan)
}

// faultyManager serves the memory stores but swaps in failingCodes.
type faultyManager struct {
	*repomanager.MemoryRepositoryManager
	codes *failingCodes
}

func newFaultyManager(clock timex.Clock) *faultyManager {
	m := repomanager.NewMemoryRepositoryManager(clock)
	return &faultyManager{
		MemoryRepositoryManager: m,
		codes:                   &failingCodes{Repository: m.CodeStore()},
	}
}

func (m *faultyManager) ActivationCodes(dbx.DBTX) activationcodes.Repository { return m.codes }

// interleavingCodes runs hook once, on the first Generate, before handing
// out the next code. It lets a test slip another request between account
// creation and the first issue.
type interleavingCodes struct {
	clock timex.Clock
	codes []string
	hook  func()
}

func (g *interleavingCodes) Generate() (string, time.Time, error) {
	if hook := g.hook; hook != nil {
		g.hook = nil
		hook()
	}
	code := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}
	return code, g.clock.Now().Add(time.Minute), nil
}
