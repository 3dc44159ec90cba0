package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"go-ledger-api/events"
	"go-ledger-api/model"
)

// fakeStore is a stateful in-memory account and transaction store. It honors
// the same contracts as the real repositories, including the non-negativity
// guard of ApplyDelta, so a full operation sequence can be walked end to end.
type fakeStore struct {
	accounts     map[int]*model.Account
	transactions []*model.Transaction
	nextTxnID    int
}

func newFakeStore(accounts ...*model.Account) *fakeStore {
	s := &fakeStore{accounts: make(map[int]*model.Account)}
	for _, a := range accounts {
		copied := *a
		s.accounts[a.ID] = &copied
	}
	return s
}

func (s *fakeStore) CreateAccount(account *model.Account) error {
	account.ID = len(s.accounts) + 1
	account.CreatedAt = time.Now()
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *fakeStore) GetAccountByID(accountID int) (*model.Account, error) {
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *account
	return &copied, nil
}

func (s *fakeStore) GetAccountsByUserID(userID int) ([]*model.Account, error) {
	var accounts []*model.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			copied := *a
			accounts = append(accounts, &copied)
		}
	}
	return accounts, nil
}

func (s *fakeStore) GetLastAccountNumber() (int64, error) {
	return 1000000000, nil
}

func (s *fakeStore) GetAccountForUpdate(tx *sql.Tx, accountID int) (*model.Account, error) {
	return s.GetAccountByID(accountID)
}

func (s *fakeStore) ApplyDelta(tx *sql.Tx, accountID int, delta decimal.Decimal) (*model.Account, error) {
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	newBalance := account.Balance.Add(delta)
	if newBalance.IsNegative() {
		return nil, sql.ErrNoRows
	}
	account.Balance = newBalance
	copied := *account
	return &copied, nil
}

func (s *fakeStore) CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error {
	s.nextTxnID++
	transaction.ID = s.nextTxnID
	transaction.CreatedAt = time.Now()
	copied := *transaction
	s.transactions = append(s.transactions, &copied)
	return nil
}

func (s *fakeStore) GetTransactionsByAccountID(accountID int) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].AccountID == accountID {
			copied := *s.transactions[i]
			transactions = append(transactions, &copied)
		}
	}
	return transactions, nil
}

func (s *fakeStore) balance(t *testing.T, accountID int) decimal.Decimal {
	t.Helper()
	account, ok := s.accounts[accountID]
	assert.True(t, ok)
	return account.Balance
}

// TestLedgerService_OperationSequence walks a deposit/withdraw/transfer
// sequence and checks the balance after every step, including that failed
// operations change nothing no matter how often they are replayed.
func TestLedgerService_OperationSequence(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	const (
		ownerID    = 1
		strangerID = 2
	)

	store := newFakeStore(
		&model.Account{ID: 1, UserID: ownerID, Balance: decimal.NewFromInt(100)},
		&model.Account{ID: 2, UserID: ownerID, Balance: decimal.NewFromInt(0)},
		&model.Account{ID: 3, UserID: strangerID, Balance: decimal.NewFromInt(50)},
	)
	svc := NewLedgerService(db, store, store, newFakeCache(), events.NopPublisher{})

	ctx := context.Background()
	expectCommit := func() { dbMock.ExpectBegin(); dbMock.ExpectCommit() }
	expectRollback := func() { dbMock.ExpectBegin(); dbMock.ExpectRollback() }

	// Transfer(A -> B, 40): A=60, B=40.
	expectCommit()
	result, err := svc.Transfer(ctx, ownerID, 1, 2, decimal.NewFromInt(40))
	assert.NoError(t, err)
	assert.True(t, result.FromAccount.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, result.ToAccount.Balance.Equal(decimal.NewFromInt(40)))

	// Funds are conserved across the pair.
	total := store.balance(t, 1).Add(store.balance(t, 2))
	assert.True(t, total.Equal(decimal.NewFromInt(100)))

	// Transfer(A -> B, 100) fails with insufficient funds; replaying it any
	// number of times leaves both balances untouched.
	for i := 0; i < 3; i++ {
		expectRollback()
		_, err = svc.Transfer(ctx, ownerID, 1, 2, decimal.NewFromInt(100))
		assert.Equal(t, ErrInsufficientFunds, err)
		assert.True(t, store.balance(t, 1).Equal(decimal.NewFromInt(60)))
		assert.True(t, store.balance(t, 2).Equal(decimal.NewFromInt(40)))
	}

	// Deposit(B, 25): B=65.
	expectCommit()
	account, _, err := svc.Deposit(ctx, ownerID, 2, decimal.NewFromInt(25))
	assert.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(65)))

	// Withdraw(A, 60): A=0.
	expectCommit()
	account, _, err = svc.Withdraw(ctx, ownerID, 1, decimal.NewFromInt(60))
	assert.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.Zero))

	// Withdraw(A, 1) fails; A stays at 0, never negative.
	expectRollback()
	_, _, err = svc.Withdraw(ctx, ownerID, 1, decimal.NewFromInt(1))
	assert.Equal(t, ErrInsufficientFunds, err)
	assert.True(t, store.balance(t, 1).Equal(decimal.Zero))

	// A stranger cannot move money out of someone else's account.
	expectRollback()
	_, err = svc.Transfer(ctx, strangerID, 1, 3, decimal.NewFromInt(10))
	assert.Equal(t, ErrPermissionDenied, err)
	assert.True(t, store.balance(t, 1).Equal(decimal.Zero))
	assert.True(t, store.balance(t, 3).Equal(decimal.NewFromInt(50)))

	// Self-transfer is rejected before any storage work happens.
	_, err = svc.Transfer(ctx, ownerID, 2, 2, decimal.NewFromInt(5))
	assert.Equal(t, ErrSameAccountTransfer, err)

	// The history reflects every successful balance change on A:
	// the transfer debit and the withdrawal.
	history, err := svc.ListTransactionsForAccount(ctx, ownerID, 1)
	assert.NoError(t, err)
	assert.Len(t, history, 2)
	for _, transaction := range history {
		assert.True(t, transaction.Amount.IsPositive())
	}

	assert.NoError(t, dbMock.ExpectationsWereMet())
}
