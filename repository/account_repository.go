package repository

import (
	"database/sql"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"go-ledger-api/logger"
	"go-ledger-api/model"
)

// IAccountRepository defines the contract for account database operations.
// ApplyDelta is the only way a balance changes.
type IAccountRepository interface {
	CreateAccount(account *model.Account) error
	GetAccountByID(accountID int) (*model.Account, error)
	GetAccountsByUserID(userID int) ([]*model.Account, error)
	GetLastAccountNumber() (int64, error)
	GetAccountForUpdate(tx *sql.Tx, accountID int) (*model.Account, error)
	ApplyDelta(tx *sql.Tx, accountID int, delta decimal.Decimal) (*model.Account, error)
}

type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// CreateAccount adds a new account to the database.
func (r *AccountRepository) CreateAccount(account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        account.UserID,
		"account_number": account.AccountNumber,
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (user_id, account_number, balance) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.DB.QueryRow(query, account.UserID, account.AccountNumber, account.Balance).Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return err
	}
	return nil
}

// GetAccountByID retrieves a single account. Returns sql.ErrNoRows if the
// account does not exist.
func (r *AccountRepository) GetAccountByID(accountID int) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT id, user_id, account_number, balance, created_at FROM accounts WHERE id = $1`
	err := r.DB.QueryRow(query, accountID).Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.Balance, &account.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithField("account_id", accountID).WithError(err).Error("Failed to execute get account query")
		}
		return nil, err
	}
	return account, nil
}

// GetAccountsByUserID retrieves all accounts for a specific user.
func (r *AccountRepository) GetAccountsByUserID(userID int) ([]*model.Account, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to get accounts by user ID")

	query := `SELECT id, user_id, account_number, balance, created_at FROM accounts WHERE user_id = $1 ORDER BY id`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for accounts by user ID")
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		var acc model.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.AccountNumber, &acc.Balance, &acc.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan account row")
			return nil, err
		}
		accounts = append(accounts, &acc)
	}
	return accounts, rows.Err()
}

// GetLastAccountNumber returns the highest assigned account number, or zero
// when no accounts exist yet.
func (r *AccountRepository) GetLastAccountNumber() (int64, error) {
	var last int64
	query := `SELECT COALESCE(MAX(account_number), 1000000000) FROM accounts`
	if err := r.DB.QueryRow(query).Scan(&last); err != nil {
		logger.Log.WithError(err).Error("Failed to execute get last account number query")
		return 0, err
	}
	return last, nil
}

// GetAccountForUpdate reads an account under a row lock inside the given
// storage transaction. The lock is held until the transaction ends.
func (r *AccountRepository) GetAccountForUpdate(tx *sql.Tx, accountID int) (*model.Account, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get account for update")

	account := &model.Account{}
	query := `SELECT id, user_id, account_number, balance, created_at FROM accounts WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(query, accountID).Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.Balance, &account.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Account not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get account for update query")
		}
		return nil, err
	}
	return account, nil
}

// ApplyDelta applies a signed balance adjustment as a single guarded relative
// update, so concurrent callers can never lose each other's writes. The WHERE
// guard refuses any delta that would leave the balance negative; in that case
// (or if the account is missing) sql.ErrNoRows is returned and nothing changes.
func (r *AccountRepository) ApplyDelta(tx *sql.Tx, accountID int, delta decimal.Decimal) (*model.Account, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": accountID,
		"delta":      delta.String(),
	})
	log.Info("Executing query to apply balance delta")

	account := &model.Account{}
	query := `UPDATE accounts SET balance = balance + $1 WHERE id = $2 AND balance + $1 >= 0
		RETURNING id, user_id, account_number, balance, created_at`
	err := tx.QueryRow(query, delta, accountID).Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.Balance, &account.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Balance delta refused by non-negativity guard")
		} else {
			log.WithError(err).Error("Failed to execute apply delta query")
		}
		return nil, err
	}
	return account, nil
}
