package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"go-ledger-api/common"
	"go-ledger-api/model"
	"go-ledger-api/service"
)

// TransactionHandler holds dependencies for ledger-mutating handlers.
type TransactionHandler struct {
	service *service.LedgerService
}

func NewTransactionHandler(s *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// transactionResponse pairs the created record with the resulting balance.
type transactionResponse struct {
	Transaction *model.Transaction `json:"transaction"`
	Balance     decimal.Decimal    `json:"balance"`
}

// transferResponse mirrors the confirmation shape of the transfer endpoint:
// a message plus both post-transfer balances and the two records written.
type transferResponse struct {
	Message            string             `json:"message"`
	FromAccountBalance decimal.Decimal    `json:"from_account_balance"`
	ToAccountBalance   decimal.Decimal    `json:"to_account_balance"`
	Debit              *model.Transaction `json:"debit"`
	Credit             *model.Transaction `json:"credit"`
}

// CreateTransaction godoc
// @Summary      Deposit to or withdraw from an account
// @Description  Applies a deposit or withdrawal to an account owned by the authenticated user and records it.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "Target account ID"
// @Param        transaction body model.CreateTransactionRequest true "Transaction type and amount"
// @Success      201  {object}  transactionResponse
// @Failure      400  {object}  common.AppError "Invalid amount, invalid type, or insufficient funds"
// @Failure      401  {object}  common.AppError "Unauthorized"
// @Failure      403  {object}  common.AppError "Account not owned by the caller"
// @Failure      404  {object}  common.AppError "Account not found"
// @Failure      409  {object}  common.AppError "Transient storage conflict, retry"
// @Router       /api/accounts/{accountId}/transactions [post]
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateTransactionRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	accountID, err := strconv.Atoi(r.PathValue("accountId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account ID in URL path", err)
	}

	account, transaction, err := h.service.CreateTransaction(
		r.Context(), userID, accountID,
		model.TransactionType(req.Type), decimal.NewFromFloat(req.Amount),
	)
	if err != nil {
		return mapLedgerError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(transactionResponse{
		Transaction: transaction,
		Balance:     account.Balance,
	})
	return nil
}

// CreateTransfer godoc
// @Summary      Transfer money between accounts
// @Description  Atomically moves an amount between two accounts owned by the authenticated user.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        transfer body model.TransferRequest true "Details of the transfer"
// @Success      201  {object}  transferResponse
// @Failure      400  {object}  common.AppError "Insufficient funds, invalid amount, or self-transfer"
// @Failure      401  {object}  common.AppError "Unauthorized"
// @Failure      403  {object}  common.AppError "Caller does not own both accounts"
// @Failure      404  {object}  common.AppError "Sender or receiver account not found"
// @Failure      409  {object}  common.AppError "Transient storage conflict, retry"
// @Router       /api/transfers [post]
func (h *TransactionHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.TransferRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	result, err := h.service.Transfer(
		r.Context(), userID,
		req.FromAccountID, req.ToAccountID, decimal.NewFromFloat(req.Amount),
	)
	if err != nil {
		return mapLedgerError(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(transferResponse{
		Message: fmt.Sprintf("Transferred %s from account %d to %d.",
			result.Debit.Amount.String(), req.FromAccountID, req.ToAccountID),
		FromAccountBalance: result.FromAccount.Balance,
		ToAccountBalance:   result.ToAccount.Balance,
		Debit:              result.Debit,
		Credit:             result.Credit,
	})
	return nil
}

// ListTransactionsForAccount godoc
// @Summary      List account transaction history
// @Description  Retrieves the transaction history for an account owned by the authenticated user.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "The ID of the account to retrieve transactions for"
// @Success      200  {array}   model.Transaction
// @Failure      400  {object}  common.AppError "Invalid account ID in URL path"
// @Failure      401  {object}  common.AppError "Unauthorized"
// @Failure      403  {object}  common.AppError "Account not owned by the caller"
// @Failure      404  {object}  common.AppError "Account not found"
// @Router       /api/accounts/{accountId}/transactions [get]
func (h *TransactionHandler) ListTransactionsForAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	accountID, err := strconv.Atoi(r.PathValue("accountId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account ID in URL path", err)
	}

	transactions, err := h.service.ListTransactionsForAccount(r.Context(), userID, accountID)
	if err != nil {
		return mapLedgerError(err)
	}
	if transactions == nil {
		transactions = []*model.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transactions)
	return nil
}

// mapLedgerError translates ledger service errors to client-facing statuses.
func mapLedgerError(err error) *common.AppError {
	switch err {
	case service.ErrAccountNotFound, service.ErrSenderAccountNotFound, service.ErrReceiverAccountNotFound:
		return common.NewAppError(http.StatusNotFound, err.Error(), err)
	case service.ErrPermissionDenied:
		return common.NewAppError(http.StatusForbidden, err.Error(), err)
	case service.ErrInsufficientFunds, service.ErrInvalidAmount, service.ErrInvalidType, service.ErrSameAccountTransfer:
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	case service.ErrStorageConflict:
		return common.NewAppError(http.StatusConflict, err.Error(), err)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Could not process the operation", err)
	}
}
