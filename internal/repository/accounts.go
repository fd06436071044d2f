package repository

import (
	"context"
	"fmt"

	"lanhall/internal/database"
	apperr "lanhall/internal/errors"
	"lanhall/internal/models"
)

type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		accountByIDQuery+` WHERE account_id = $1`, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		accountByIDQuery+` WHERE email = $1`, email))
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (email, password_hash, display_name, role, balance, activity_status, is_active)
		VALUES ($1, $2, $3, $4, $5, 'OFFLINE', TRUE)
		RETURNING account_id, registered_at`

	err := r.db.QueryRowContext(ctx, query,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.Role,
		account.Balance,
	).Scan(&account.AccountID, &account.RegisteredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %q: %w", account.Email, apperr.ErrConflict)
		}
		return err
	}
	return nil
}
