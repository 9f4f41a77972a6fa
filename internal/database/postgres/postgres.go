package postgres

import (
	"audit-service/internal/config"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const accountsSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('officer', 'admin')),
	state         TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

// ConnectAndCreateDB creates the target database when missing, connects, and applies the schema.
func ConnectAndCreateDB(cfg config.PostgresConfig, logger *zap.Logger) (*sqlx.DB, error) {
	defaultConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	defaultDB, err := sql.Open("postgres", defaultConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to default postgres db: %w", err)
	}
	defer defaultDB.Close()

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err = defaultDB.QueryRow(checkQuery, cfg.DBname).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		createQuery := fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.DBname)
		if _, err = defaultDB.Exec(createQuery); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBname, err)
		}
		logger.Info("database created", zap.String("database", cfg.DBname))
	}

	targetConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBname)

	db, err := sqlx.Connect("postgres", targetConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping target database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies the accounts schema. It is idempotent.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(accountsSchema); err != nil {
		return fmt.Errorf("failed to apply accounts schema: %w", err)
	}
	return nil
}

// ConnectWithRetry keeps trying until the database answers or attempts run out.
func ConnectWithRetry(cfg config.PostgresConfig, logger *zap.Logger, attempts int, wait time.Duration) (*sqlx.DB, error) {
	return retry(attempts, wait, logger, func() (*sqlx.DB, error) {
		return ConnectAndCreateDB(cfg, logger)
	}, time.Sleep)
}

func retry(attempts int, wait time.Duration, logger *zap.Logger, connect func() (*sqlx.DB, error), sleep func(time.Duration)) (*sqlx.DB, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := connect()
		if err == nil {
			return db, nil
		}
		lastErr = err
		if i == attempts {
			break
		}
		logger.Warn("database connection failed, retrying",
			zap.Int("attempt", i),
			zap.Duration("next_retry_in", wait),
			zap.Error(err))
		sleep(wait)
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}
