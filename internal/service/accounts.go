package service

import (
	"context"
	"crypto/sha256"
	"fmt"

	"lanhall/internal/models"
)

// AccountCatalog covers account registration, satisfied by
// *repository.AccountRepository.
type AccountCatalog interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
}

// AccountService handles operator-side account bootstrap. Top-up and
// order flows live outside this service.
type AccountService struct {
	accounts AccountCatalog
}

func NewAccountService(accounts AccountCatalog) *AccountService {
	return &AccountService{accounts: accounts}
}

// Create registers a member or operator account with an initial balance.
func (s *AccountService) Create(ctx context.Context, req *models.CreateAccountRequest) (*models.CreateAccountResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	hash := sha256.Sum256([]byte(req.Password))
	account := &models.Account{
		Email:        req.Email,
		PasswordHash: fmt.Sprintf("%x", hash),
		DisplayName:  req.DisplayName,
		Role:         role,
		Balance:      req.Balance,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &models.CreateAccountResponse{AccountID: account.AccountID}, nil
}
