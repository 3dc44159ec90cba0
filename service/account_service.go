package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"go-ledger-api/model"
	"go-ledger-api/repository"
)

const accountCacheTTL = 10 * time.Minute

func accountsCacheKey(userID int) string {
	return fmt.Sprintf("accounts:%d", userID)
}

// AccountService owns account creation and listing. Balance mutation is the
// ledger service's job; nothing here changes a balance after creation.
type AccountService struct {
	repo  repository.IAccountRepository
	cache ICacheClient
}

func NewAccountService(repo repository.IAccountRepository, cache ICacheClient) *AccountService {
	return &AccountService{
		repo:  repo,
		cache: cache,
	}
}

// CreateNewAccount assigns the next sequential account number, persists the
// account, and invalidates the owner's cached listing.
func (s *AccountService) CreateNewAccount(userID int, initialBalance decimal.Decimal) (*model.Account, error) {
	if initialBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	lastAccountNumber, err := s.repo.GetLastAccountNumber()
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		UserID:        userID,
		AccountNumber: lastAccountNumber + 1,
		Balance:       initialBalance,
	}

	if err := s.repo.CreateAccount(account); err != nil {
		return nil, err
	}

	s.cache.Del(context.Background(), accountsCacheKey(userID))

	return account, nil
}

// ListAccountsForUser lists a user's accounts with a cache-aside strategy.
func (s *AccountService) ListAccountsForUser(userID int) ([]*model.Account, error) {
	cacheKey := accountsCacheKey(userID)
	ctx := context.Background()

	cachedAccounts, err := s.cache.Get(ctx, cacheKey).Result()
	if err == nil {
		var accounts []*model.Account
		if err := json.Unmarshal([]byte(cachedAccounts), &accounts); err == nil {
			return accounts, nil
		}
	}

	accounts, err := s.repo.GetAccountsByUserID(userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(accounts); err == nil {
		s.cache.Set(ctx, cacheKey, data, accountCacheTTL)
	}

	return accounts, nil
}
