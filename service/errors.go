package service

import "errors"

// Business-rule failures surfaced by the service layer. Handlers map these to
// HTTP status codes; none of them implies a partial state change.
var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrSenderAccountNotFound   = errors.New("sender account not found")
	ErrReceiverAccountNotFound = errors.New("receiver account not found")
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrInvalidType             = errors.New("invalid transaction type")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrPermissionDenied        = errors.New("you can only operate on your own accounts")
	ErrSameAccountTransfer     = errors.New("cannot transfer money to the same account")
	ErrStorageConflict         = errors.New("operation conflicted with a concurrent one, please retry")
	ErrEmailTaken              = errors.New("email already registered")
	ErrInvalidCredentials      = errors.New("invalid email or password")
)
