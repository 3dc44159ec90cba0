package model

// RegisterRequest defines the payload for creating a new user.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// CreateAccountRequest opens a new account. The initial balance is optional
// and must not be negative.
type CreateAccountRequest struct {
	InitialBalance float64 `json:"initial_balance" validate:"gte=0"`
}

// CreateTransactionRequest is the deposit/withdraw payload. The type field is
// a closed set; unrecognized values never reach the service layer.
type CreateTransactionRequest struct {
	Type   string  `json:"type" validate:"required,oneof=deposit withdraw"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// TransferRequest moves funds between two accounts owned by the caller.
type TransferRequest struct {
	FromAccountID int     `json:"from_account_id" validate:"required"`
	ToAccountID   int     `json:"to_account_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
}
