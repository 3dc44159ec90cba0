package events

import (
	"time"

	"github.com/shopspring/decimal"

	"go-ledger-api/model"
)

// Publisher emits ledger events to an external broker. Publishing happens
// after commit and is best effort; a failure never rolls back a transaction.
type Publisher interface {
	Publish(event any) error
	Close() error
}

// TransactionCompleted is emitted once per committed transaction record. A
// transfer emits two, one per leg.
type TransactionCompleted struct {
	EventID       string                `json:"event_id"`
	TransactionID int                   `json:"transaction_id"`
	AccountID     int                   `json:"account_id"`
	Type          model.TransactionType `json:"type"`
	Amount        decimal.Decimal       `json:"amount"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(any) error { return nil }
func (NopPublisher) Close() error      { return nil }
