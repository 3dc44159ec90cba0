package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go-ledger-api/events"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"
)

const (
	// maxTxRetries bounds the silent retries on serialization conflicts
	// before ErrStorageConflict is surfaced to the caller.
	maxTxRetries = 3

	// opTimeout bounds how long one attempt may wait on row locks. A timed
	// out attempt rolls back completely and surfaces as retryable.
	opTimeout = 5 * time.Second
)

// LedgerService implements the balance-mutation core: deposit, withdraw and
// transfer. Every operation runs inside a single storage transaction with
// all-or-nothing semantics, and the row it touches is locked for the duration
// of the mutation. Balances are never observably negative.
type LedgerService struct {
	db              *sql.DB
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
	cache           ICacheClient
	publisher       events.Publisher
}

func NewLedgerService(db *sql.DB, accountRepo repository.IAccountRepository, transactionRepo repository.ITransactionRepository, cache ICacheClient, publisher events.Publisher) *LedgerService {
	return &LedgerService{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
		publisher:       publisher,
	}
}

// TransferResult reports the outcome of a completed transfer: both post-
// transfer balances and the two transaction records written for it.
type TransferResult struct {
	FromAccount *model.Account     `json:"from_account"`
	ToAccount   *model.Account     `json:"to_account"`
	Debit       *model.Transaction `json:"debit"`
	Credit      *model.Transaction `json:"credit"`
}

// CreateTransaction dispatches a typed single-account operation. The type set
// is closed; anything else is rejected without touching storage.
func (s *LedgerService) CreateTransaction(ctx context.Context, userID, accountID int, txType model.TransactionType, amount decimal.Decimal) (*model.Account, *model.Transaction, error) {
	switch txType {
	case model.TransactionDeposit:
		return s.Deposit(ctx, userID, accountID, amount)
	case model.TransactionWithdraw:
		return s.Withdraw(ctx, userID, accountID, amount)
	default:
		return nil, nil, ErrInvalidType
	}
}

// Deposit adds amount to the account's balance and records the transaction.
// The account must exist and belong to the calling principal.
func (s *LedgerService) Deposit(ctx context.Context, userID, accountID int, amount decimal.Decimal) (*model.Account, *model.Transaction, error) {
	if !amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": accountID,
		"amount":     amount.String(),
	})
	log.Info("Starting deposit")

	var (
		account     *model.Account
		transaction *model.Transaction
	)

	err := s.withRetry(ctx, log, func(tx *sql.Tx) error {
		locked, err := s.lockOwnedAccount(tx, userID, accountID)
		if err != nil {
			return err
		}

		account, err = s.accountRepo.ApplyDelta(tx, locked.ID, amount)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrAccountNotFound
			}
			return fmt.Errorf("could not apply deposit delta: %w", err)
		}

		transaction = &model.Transaction{
			AccountID: account.ID,
			Type:      model.TransactionDeposit,
			Amount:    amount,
		}
		if err := s.transactionRepo.CreateTransaction(tx, transaction); err != nil {
			return fmt.Errorf("could not create transaction record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info("Deposit completed successfully")
	s.afterCommit(account.UserID, transaction)
	return account, transaction, nil
}

// Withdraw subtracts amount from the account's balance if the funds are
// available, and records the transaction. On any failure the balance is
// unchanged.
func (s *LedgerService) Withdraw(ctx context.Context, userID, accountID int, amount decimal.Decimal) (*model.Account, *model.Transaction, error) {
	if !amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": accountID,
		"amount":     amount.String(),
	})
	log.Info("Starting withdrawal")

	var (
		account     *model.Account
		transaction *model.Transaction
	)

	err := s.withRetry(ctx, log, func(tx *sql.Tx) error {
		locked, err := s.lockOwnedAccount(tx, userID, accountID)
		if err != nil {
			return err
		}

		if locked.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		account, err = s.accountRepo.ApplyDelta(tx, locked.ID, amount.Neg())
		if err != nil {
			if err == sql.ErrNoRows {
				// The guard refused the delta even though the locked
				// balance looked sufficient.
				return ErrInsufficientFunds
			}
			return fmt.Errorf("could not apply withdrawal delta: %w", err)
		}

		transaction = &model.Transaction{
			AccountID: account.ID,
			Type:      model.TransactionWithdraw,
			Amount:    amount,
		}
		if err := s.transactionRepo.CreateTransaction(tx, transaction); err != nil {
			return fmt.Errorf("could not create transaction record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info("Withdrawal completed successfully")
	s.afterCommit(account.UserID, transaction)
	return account, transaction, nil
}

// Transfer atomically moves amount from one account to another. Both rows are
// locked in ascending id order so that opposing transfers between the same
// pair cannot deadlock, and both balance changes commit together or not at
// all. Both accounts must belong to the calling principal.
func (s *LedgerService) Transfer(ctx context.Context, userID, fromAccountID, toAccountID int, amount decimal.Decimal) (*TransferResult, error) {
	if fromAccountID == toAccountID {
		return nil, ErrSameAccountTransfer
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":         userID,
		"from_account_id": fromAccountID,
		"to_account_id":   toAccountID,
		"amount":          amount.String(),
	})
	log.Info("Starting money transfer")

	result := &TransferResult{}

	err := s.withRetry(ctx, log, func(tx *sql.Tx) error {
		locked := map[int]*model.Account{}

		firstID, secondID := fromAccountID, toAccountID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		for _, id := range []int{firstID, secondID} {
			account, err := s.accountRepo.GetAccountForUpdate(tx, id)
			if err != nil {
				if err == sql.ErrNoRows {
					if id == fromAccountID {
						return ErrSenderAccountNotFound
					}
					return ErrReceiverAccountNotFound
				}
				return err
			}
			locked[id] = account
		}

		fromAccount := locked[fromAccountID]
		toAccount := locked[toAccountID]

		// Transfers only move money between the caller's own accounts.
		if fromAccount.UserID != userID || toAccount.UserID != userID {
			return ErrPermissionDenied
		}
		if fromAccount.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		updatedFrom, err := s.accountRepo.ApplyDelta(tx, fromAccount.ID, amount.Neg())
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrInsufficientFunds
			}
			return fmt.Errorf("could not debit sender account: %w", err)
		}

		updatedTo, err := s.accountRepo.ApplyDelta(tx, toAccount.ID, amount)
		if err != nil {
			return fmt.Errorf("could not credit receiver account: %w", err)
		}

		debit := &model.Transaction{
			AccountID: updatedFrom.ID,
			Type:      model.TransactionWithdraw,
			Amount:    amount,
		}
		if err := s.transactionRepo.CreateTransaction(tx, debit); err != nil {
			return fmt.Errorf("could not create debit record: %w", err)
		}

		credit := &model.Transaction{
			AccountID: updatedTo.ID,
			Type:      model.TransactionDeposit,
			Amount:    amount,
		}
		if err := s.transactionRepo.CreateTransaction(tx, credit); err != nil {
			return fmt.Errorf("could not create credit record: %w", err)
		}

		result.FromAccount = updatedFrom
		result.ToAccount = updatedTo
		result.Debit = debit
		result.Credit = credit
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Transfer completed successfully")
	s.afterCommit(userID, result.Debit, result.Credit)
	return result, nil
}

// ListTransactionsForAccount retrieves the transaction history for an account
// owned by the calling principal.
func (s *LedgerService) ListTransactionsForAccount(ctx context.Context, userID, accountID int) ([]*model.Transaction, error) {
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if account.UserID != userID {
		logger.Log.WithFields(logrus.Fields{
			"requesting_user_id": userID,
			"target_account_id":  accountID,
		}).Warn("Permission denied for accessing account's transaction history")
		return nil, ErrPermissionDenied
	}

	return s.transactionRepo.GetTransactionsByAccountID(accountID)
}

// lockOwnedAccount reads an account under a row lock and verifies that it
// belongs to the principal. It is the ownership gate for single-account
// mutations.
func (s *LedgerService) lockOwnedAccount(tx *sql.Tx, userID, accountID int) (*model.Account, error) {
	account, err := s.accountRepo.GetAccountForUpdate(tx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if account.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return account, nil
}

// withRetry runs op inside a storage transaction, retrying a bounded number
// of times when the database reports a serialization conflict. Business-rule
// failures are never retried.
func (s *LedgerService) withRetry(ctx context.Context, log *logrus.Entry, op func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err = s.runInTx(ctx, op)
		if err == nil || !isRetryableTxError(err) {
			if errors.Is(err, context.DeadlineExceeded) {
				return ErrStorageConflict
			}
			return err
		}
		log.WithField("attempt", attempt).WithError(err).Warn("Storage conflict, retrying operation")
	}
	return ErrStorageConflict
}

func (s *LedgerService) runInTx(ctx context.Context, op func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := op(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// isRetryableTxError reports whether the error is a transient concurrency
// failure: a serialization failure, a detected deadlock, or a lock timeout.
func isRetryableTxError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

// afterCommit runs the side effects that must not influence the outcome of a
// committed operation: cache invalidation and event publication.
func (s *LedgerService) afterCommit(ownerID int, transactions ...*model.Transaction) {
	s.cache.Del(context.Background(), accountsCacheKey(ownerID))

	for _, t := range transactions {
		event := events.TransactionCompleted{
			EventID:       uuid.NewString(),
			TransactionID: t.ID,
			AccountID:     t.AccountID,
			Type:          t.Type,
			Amount:        t.Amount,
			OccurredAt:    t.CreatedAt,
		}
		if err := s.publisher.Publish(event); err != nil {
			logger.Log.WithError(err).WithField("transaction_id", t.ID).Warn("Failed to publish transaction event")
		}
	}
}
