package repository

import (
	"audit-service/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type IAccountRepository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	DeleteAllAccounts(ctx context.Context) (int64, error)
}

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) IAccountRepository {
	return &AccountRepository{
		db: db,
	}
}

func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, username, password_hash, role, state, created_at, updated_at)
		VALUES (:id, :username, :password_hash, :role, :state, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, account)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *AccountRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	query := `SELECT id, username, password_hash, role, state, created_at, updated_at FROM accounts WHERE username = $1`

	if err := r.db.GetContext(ctx, &account, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %q: %w", username, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}

	return &account, nil
}

func (r *AccountRepository) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	query := `SELECT id, username, password_hash, role, state, created_at, updated_at FROM accounts ORDER BY created_at ASC`

	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) DeleteAllAccounts(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete accounts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
