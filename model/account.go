package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account balances are stored as NUMERIC and carried as decimal.Decimal.
// The balance is never negative outside an in-flight storage transaction.
type Account struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	AccountNumber int64           `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}
