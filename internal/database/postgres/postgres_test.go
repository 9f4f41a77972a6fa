package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRetry_NoSleepAfterFinalAttempt(t *testing.T) {
	errRefused := errors.New("connection refused")
	calls := 0
	var slept []time.Duration

	db, err := retry(3, time.Second, zap.NewNop(), func() (*sqlx.DB, error) {
		calls++
		return nil, errRefused
	}, func(d time.Duration) { slept = append(slept, d) })

	assert.Nil(t, db)
	require.ErrorIs(t, err, errRefused)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, slept)
}

func TestRetry_ReturnsFirstSuccess(t *testing.T) {
	raw, _, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	want := sqlx.NewDb(raw, "sqlmock")

	calls, sleeps := 0, 0
	db, err := retry(5, time.Second, zap.NewNop(), func() (*sqlx.DB, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("starting up")
		}
		return want, nil
	}, func(time.Duration) { sleeps++ })

	require.NoError(t, err)
	assert.Same(t, want, db)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, sleeps)
}

func TestMigrate_AppliesSchema(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS accounts").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, Migrate(sqlx.NewDb(raw, "sqlmock")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
