// Package accounts provides the PostgreSQL-backed account store used by
// the activation flow.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/dbx"
	"github.com/dmitrijs2005/gophactivate/internal/server/models"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation   = "23505"
	pgInvalidTextRepr   = "22P02"
	accountSelectFields = `id, email, password_hash, status, created_at, updated_at, activated_at`
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db    dbx.DBTX
	clock timex.Clock
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX, clock timex.Clock) *PostgresRepository {
	return &PostgresRepository{db: db, clock: clock}
}

// Create inserts a PENDING account with a fresh UUID. A taken email
// (compared in canonical form) yields common.ErrDuplicateEmail.
func (r *PostgresRepository) Create(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	now := r.clock.Now()
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        common.NormalizeEmail(email),
		PasswordHash: passwordHash,
		Status:       models.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, account.PasswordHash, string(account.Status), now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// FindByEmail returns the account for the canonical form of email.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT ` + accountSelectFields + `
		FROM accounts
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, common.NormalizeEmail(email)))
}

// FindByID returns the account with the given id or common.ErrorNotFound.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT ` + accountSelectFields + `
		FROM accounts
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// Activate moves a PENDING account to ACTIVE in one conditional update.
func (r *PostgresRepository) Activate(ctx context.Context, id string) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET status = $2, activated_at = $3, updated_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + accountSelectFields

	account, err := r.scanOne(r.db.QueryRowContext(ctx, query,
		id, string(models.StatusActive), r.clock.Now(), string(models.StatusPending)))
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	// Nothing matched: tell a missing row from a non-PENDING one.
	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM accounts WHERE id = $1`, id).Scan(&status)
	if err != nil {
		return nil, mapError(err)
	}
	return nil, common.ErrInvalidStateTransition
}

// Lock takes the account row lock; it must run inside a transaction.
func (r *PostgresRepository) Lock(ctx context.Context, id string) error {
	query := `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`

	var locked string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&locked); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	var (
		account     models.Account
		status      string
		activatedAt sql.NullTime
	)
	err := row.Scan(&account.ID, &account.Email, &account.PasswordHash, &status,
		&account.CreatedAt, &account.UpdatedAt, &activatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	account.Status = models.AccountStatus(status)
	if activatedAt.Valid {
		t := activatedAt.Time
		account.ActivatedAt = &t
	}
	return &account, nil
}

// mapError turns "no such row" (including ids that are not UUIDs at all)
// into common.ErrorNotFound and wraps everything else.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepr {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
