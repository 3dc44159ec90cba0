package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is a closed set. Anything else is rejected at the API
// boundary and again inside the ledger service.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionWithdraw TransactionType = "withdraw"
)

// Transaction is an immutable historical record of a single balance change.
// A transfer produces two of these: a withdraw on the source account and a
// deposit on the destination, committed together.
type Transaction struct {
	ID        int             `json:"id"`
	AccountID int             `json:"account_id"`
	Type      TransactionType `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}
