package repository

import (
	"audit-service/internal/models"
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []string{"id", "username", "password_hash", "role", "state", "created_at", "updated_at"}

func newMockAccountRepo(t *testing.T) (IAccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAccountRepository(sqlx.NewDb(db, "postgres")), mock
}

func testAccount() *models.Account {
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	return &models.Account{
		ID:           "8f0c8c5e-5e0b-4b7e-9d77-5d1b1d1a0001",
		Username:     "Favour",
		PasswordHash: "$2a$10$hash",
		Role:         models.RoleOfficer,
		State:        "ABIA",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateAccount_Success(t *testing.T) {
	repo, mock := newMockAccountRepo(t)
	acc := testAccount()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WithArgs(acc.ID, acc.Username, acc.PasswordHash, acc.Role, acc.State, acc.CreatedAt, acc.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateAccount(context.Background(), acc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.CreateAccount(context.Background(), testAccount())
	assert.ErrorIs(t, err, models.ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_OtherFailure(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts")).
		WillReturnError(errors.New("connection reset"))

	err := repo.CreateAccount(context.Background(), testAccount())
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrDuplicateUsername)
}

func TestGetAccountByUsername(t *testing.T) {
	repo, mock := newMockAccountRepo(t)
	acc := testAccount()

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE username = $1")).
		WithArgs("Favour").
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(acc.ID, acc.Username, acc.PasswordHash, string(acc.Role), acc.State, acc.CreatedAt, acc.UpdatedAt))

	got, err := repo.GetAccountByUsername(context.Background(), "Favour")
	require.NoError(t, err)
	assert.Equal(t, acc, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByUsername_NotFound(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE username = $1")).
		WithArgs("Nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetAccountByUsername(context.Background(), "Nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListAccounts(t *testing.T) {
	repo, mock := newMockAccountRepo(t)
	acc := testAccount()

	mock.ExpectQuery(regexp.QuoteMeta("FROM accounts ORDER BY created_at ASC")).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(acc.ID, acc.Username, acc.PasswordHash, string(acc.Role), acc.State, acc.CreatedAt, acc.UpdatedAt).
			AddRow("id-2", "Dike", "$2a$10$other", "officer", "IMO STATE", acc.CreatedAt, acc.UpdatedAt))

	accounts, err := repo.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Dike", accounts[1].Username)
}

func TestDeleteAllAccounts(t *testing.T) {
	repo, mock := newMockAccountRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts")).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteAllAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
