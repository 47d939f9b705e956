package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophactivate/internal/dbx"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/activationcodes"
)

// RepositoryManager vends repositories bound to a DBTX and owns the
// underlying storage handle.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Accounts(db dbx.DBTX) accounts.Repository
	ActivationCodes(db dbx.DBTX) activationcodes.Repository

	// Conn is the handle repositories use outside a transaction.
	Conn() dbx.DBTX
	// WithTx runs fn inside one transaction; repositories built from tx
	// see and commit its changes together.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

	Ping(ctx context.Context) error
	Close() error
}
