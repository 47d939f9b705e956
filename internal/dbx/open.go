package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Pool sizes the connection pool of a handle returned by Open.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
}

// Retry controls how Open waits for the database.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetry doubles a one second backoff over five attempts.
var DefaultRetry = Retry{Attempts: 5, Backoff: time.Second}

// sleep is a seam for tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Open opens a pool for driver/dsn and pings it, retrying with exponential
// backoff until the database answers or the attempts run out. The caller
// owns the returned handle and must Close it.
func Open(ctx context.Context, driver, dsn string, pool Pool, retry Retry) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	attempts := max(retry.Attempts, 1)
	backoff := retry.Backoff

	for i := 1; ; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if i == attempts {
			break
		}
		if serr := sleep(ctx, backoff); serr != nil {
			err = serr
			break
		}
		backoff *= 2
	}

	_ = db.Close()
	return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", attempts, err)
}
