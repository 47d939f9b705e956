// Package activationcodes provides the PostgreSQL-backed store for
// single-use activation codes.
package activationcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/dbx"
	"github.com/dmitrijs2005/gophactivate/internal/server/models"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgInvalidTextRepr = "22P02"

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

// Issue inserts a new unconsumed code. Other codes are left untouched.
func (r *PostgresRepository) Issue(ctx context.Context, accountID, code string, expiresAt time.Time) (*models.ActivationCode, error) {
	ac := &models.ActivationCode{
		AccountID: accountID,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: r.clock.Now(),
	}

	query := `
		INSERT INTO activation_codes (account_id, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, ac.AccountID, ac.Code, ac.ExpiresAt, ac.CreatedAt).Scan(&ac.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ac, nil
}

// InvalidateAllUnconsumed burns every unconsumed code of the account and
// reports how many were burned.
func (r *PostgresRepository) InvalidateAllUnconsumed(ctx context.Context, accountID string) (int64, error) {
	query := `
		UPDATE activation_codes
		SET consumed = true, invalidated_at = $2
		WHERE account_id = $1 AND consumed = false
	`
	res, err := r.db.ExecContext(ctx, query, accountID, r.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// FindValid returns the unconsumed, unexpired code or common.ErrorNotFound.
func (r *PostgresRepository) FindValid(ctx context.Context, accountID, code string) (*models.ActivationCode, error) {
	query := `
		SELECT id, account_id, code, expires_at, created_at, consumed, consumed_at, invalidated_at
		FROM activation_codes
		WHERE account_id = $1 AND code = $2 AND consumed = false AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		ac                        models.ActivationCode
		consumedAt, invalidatedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, accountID, code, r.clock.Now()).Scan(
		&ac.ID, &ac.AccountID, &ac.Code, &ac.ExpiresAt, &ac.CreatedAt,
		&ac.Consumed, &consumedAt, &invalidatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	ac.ConsumedAt = nullTime(consumedAt)
	ac.InvalidatedAt = nullTime(invalidatedAt)
	return &ac, nil
}

// Consume marks the code used. Losing the race to another consumer
// yields common.ErrAlreadyConsumed.
func (r *PostgresRepository) Consume(ctx context.Context, accountID, code string) error {
	query := `
		UPDATE activation_codes
		SET consumed = true, consumed_at = $3
		WHERE account_id = $1 AND code = $2 AND consumed = false
	`
	res, err := r.db.ExecContext(ctx, query, accountID, code, r.clock.Now())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrAlreadyConsumed
	}
	return nil
}

// CleanupExpired deletes codes that expired before olderThan.
func (r *PostgresRepository) CleanupExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activation_codes WHERE expires_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepr
}
