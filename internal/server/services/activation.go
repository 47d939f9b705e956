// Package services contains server-side business logic. This file
// implements ActivationService, which drives accounts from registration
// to activation.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/dbx"
	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/dmitrijs2005/gophactivate/internal/server/auth"
	"github.com/dmitrijs2005/gophactivate/internal/server/dispatcher"
	"github.com/dmitrijs2005/gophactivate/internal/server/models"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/repomanager"
)

// CodeGenerator yields an activation code and its expiry.
type CodeGenerator interface {
	Generate() (code string, expiresAt time.Time, err error)
}

// RegistrationResult is returned by a successful registration.
type RegistrationResult struct {
	Account   *models.Account
	ExpiresAt time.Time
	// DispatchWarning is set when the notice could not be queued. The
	// account and its code exist regardless.
	DispatchWarning error
}

// ResendResult is returned by a successful resend.
type ResendResult struct {
	ExpiresAt time.Time
	// Invalidated counts the codes burned by this resend.
	Invalidated     int64
	DispatchWarning error
}

// ActivationService implements the account activation state machine:
//   - Register: create a PENDING account and send it a code
//   - Activate: check credentials and code, then make the account ACTIVE
//   - ResendActivation: burn outstanding codes and send a fresh one
type ActivationService struct {
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	codes       CodeGenerator
	dispatcher  dispatcher.Dispatcher
	log         logging.Logger
}

func NewActivationService(
	m repomanager.RepositoryManager,
	hasher auth.PasswordHasher,
	codes CodeGenerator,
	d dispatcher.Dispatcher,
	log logging.Logger,
) *ActivationService {
	return &ActivationService{
		repomanager: m,
		hasher:      hasher,
		codes:       codes,
		dispatcher:  d,
		log:         log.With("module", "activation"),
	}
}

// Register creates a PENDING account for email, issues its first code and
// queues the notice. A duplicate email yields common.ErrDuplicateEmail.
func (s *ActivationService) Register(ctx context.Context, email, password string) (*RegistrationResult, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	db := s.repomanager.Conn()
	account, err := s.repomanager.Accounts(db).Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, s.storageError(ctx, "create account", err)
	}

	code, expiresAt, err := s.codes.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	// Create stays outside the transaction: a failed issue leaves a PENDING
	// account that a resend recovers.
	if _, err := s.reissue(ctx, account.ID, code, expiresAt); err != nil {
		if errors.Is(err, common.ErrAlreadyActive) {
			return nil, common.ErrAlreadyActive
		}
		return nil, s.storageError(ctx, "issue activation code", err, "account_id", account.ID)
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)

	return &RegistrationResult{
		Account:         account,
		ExpiresAt:       expiresAt,
		DispatchWarning: s.dispatch(ctx, account, code, expiresAt),
	}, nil
}

// Activate turns a PENDING account ACTIVE when the credentials match and
// code is the account's current, unexpired code.
func (s *ActivationService) Activate(ctx context.Context, email, password, code string) (*models.Account, error) {
	account, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !account.IsPending() {
		return nil, common.ErrAlreadyActive
	}

	db := s.repomanager.Conn()
	codes := s.repomanager.ActivationCodes(db)

	if _, err := codes.FindValid(ctx, account.ID, code); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOrExpiredCode
		}
		return nil, s.storageError(ctx, "find activation code", err, "account_id", account.ID)
	}

	// Consuming first means two racing requests cannot both pass.
	if err := codes.Consume(ctx, account.ID, code); err != nil {
		if errors.Is(err, common.ErrAlreadyConsumed) {
			return nil, common.ErrAlreadyConsumed
		}
		return nil, s.storageError(ctx, "consume activation code", err, "account_id", account.ID)
	}

	activated, err := s.repomanager.Accounts(db).Activate(ctx, account.ID)
	if err != nil {
		if errors.Is(err, common.ErrInvalidStateTransition) {
			return nil, common.ErrInvalidStateTransition
		}
		return nil, s.storageError(ctx, "activate account", err, "account_id", account.ID)
	}

	s.log.Info(ctx, "account activated", "account_id", activated.ID)
	return activated, nil
}

// ResendActivation burns every outstanding code of a PENDING account,
// issues a new one and queues its notice.
func (s *ActivationService) ResendActivation(ctx context.Context, email, password string) (*ResendResult, error) {
	account, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !account.IsPending() {
		return nil, common.ErrAlreadyActive
	}

	code, expiresAt, err := s.codes.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	invalidated, err := s.reissue(ctx, account.ID, code, expiresAt)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyActive) {
			return nil, common.ErrAlreadyActive
		}
		return nil, s.storageError(ctx, "reissue activation code", err, "account_id", account.ID)
	}

	s.log.Info(ctx, "activation code reissued", "account_id", account.ID, "invalidated", invalidated)

	return &ResendResult{
		ExpiresAt:       expiresAt,
		Invalidated:     invalidated,
		DispatchWarning: s.dispatch(ctx, account, code, expiresAt),
	}, nil
}

// reissue burns every unconsumed code of a PENDING account and stores code
// as its only valid one. The account row lock serialises it with every
// other issue for the same account.
func (s *ActivationService) reissue(ctx context.Context, accountID, code string, expiresAt time.Time) (int64, error) {
	var invalidated int64
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)
		if err := accounts.Lock(ctx, accountID); err != nil {
			return err
		}
		// The account may have been activated since we read it.
		current, err := accounts.FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if !current.IsPending() {
			return common.ErrAlreadyActive
		}

		codes := s.repomanager.ActivationCodes(tx)
		if invalidated, err = codes.InvalidateAllUnconsumed(ctx, accountID); err != nil {
			return err
		}
		_, err = codes.Issue(ctx, accountID, code, expiresAt)
		return err
	})
	return invalidated, err
}

// authenticate looks the account up and checks the password. An unknown
// email still pays for a hash comparison so both failures look alike.
func (s *ActivationService) authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.repomanager.Conn()).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, "")
			return nil, common.ErrAccountNotFound
		}
		return nil, s.storageError(ctx, "find account", err)
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, common.ErrInvalidCredential
	}
	return account, nil
}

func (s *ActivationService) dispatch(ctx context.Context, account *models.Account, code string, expiresAt time.Time) error {
	err := s.dispatcher.Enqueue(ctx, dispatcher.Notice{
		AccountID: account.ID,
		Email:     account.Email,
		Code:      code,
		ExpiresAt: expiresAt,
	})
	if err == nil {
		return nil
	}
	s.log.Warn(ctx, "activation notice not dispatched", "account_id", account.ID, "error", err)
	return fmt.Errorf("%w: %w", common.ErrDispatchWarning, err)
}

func (s *ActivationService) storageError(ctx context.Context, op string, err error, args ...any) error {
	s.log.Error(ctx, op+" failed", append(args, "error", err)...)
	return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
}
