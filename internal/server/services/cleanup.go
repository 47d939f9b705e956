package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultCodeRetention is how long expired codes are kept for auditing.
const DefaultCodeRetention = 30 * 24 * time.Hour

// CleanupService purges activation codes past their retention window.
type CleanupService struct {
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	retention   time.Duration
	retryDelay  time.Duration
	log         logging.Logger
}

func NewCleanupService(m repomanager.RepositoryManager, clock timex.Clock, retention time.Duration, log logging.Logger) *CleanupService {
	if retention <= 0 {
		retention = DefaultCodeRetention
	}
	return &CleanupService{
		repomanager: m,
		clock:       clock,
		retention:   retention,
		retryDelay:  time.Second,
		log:         log.With("module", "cleanup"),
	}
}

// CleanupDaily deletes codes that expired more than the retention window
// ago and reports how many went.
func (s *CleanupService) CleanupDaily(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.retention)

	var deleted int64
	err := s.runWithRetry(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.repomanager.ActivationCodes(s.repomanager.Conn()).CleanupExpired(ctx, cutoff)
		return err
	})
	if err != nil {
		s.log.Error(ctx, "activation code cleanup failed", "error", err)
		return 0, fmt.Errorf("cleanup activation codes: %w", err)
	}

	s.log.Info(ctx, "activation codes cleaned up", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}

// runWithRetry runs fn and retries it once when the failure looks like a
// dropped connection.
func (s *CleanupService) runWithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !isTransient(err) {
		return err
	}

	s.log.Warn(ctx, "transient database error, retrying", "error", err)
	select {
	case <-time.After(s.retryDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn(ctx)
}

func isTransient(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, driver.ErrBadConn) ||
		pgconn.SafeToRetry(err)
}
