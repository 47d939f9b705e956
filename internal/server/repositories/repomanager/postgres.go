// Package repomanager provides RepositoryManager implementations for
// PostgreSQL and process memory, wiring together repository constructors
// and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophactivate/internal/dbx"
	"github.com/dmitrijs2005/gophactivate/internal/server/migrations"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/activationcodes"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	db    *sql.DB
	clock timex.Clock
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed
// RepositoryManager. The manager takes ownership of db.
func NewPostgresRepositoryManager(db *sql.DB, clock timex.Clock) (RepositoryManager, error) {
	if db == nil {
		return nil, fmt.Errorf("repomanager: nil database handle")
	}
	return &PostgresRepositoryManager{db: db, clock: clock}, nil
}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db, m.clock)
}

// ActivationCodes returns an activationcodes.Repository bound to the
// provided DBTX.
func (m *PostgresRepositoryManager) ActivationCodes(db dbx.DBTX) activationcodes.Repository {
	return activationcodes.NewPostgresRepository(db, m.clock)
}

func (m *PostgresRepositoryManager) Conn() dbx.DBTX { return m.db }

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return dbx.WithTx(ctx, m.db, nil, fn)
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the managed database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}
