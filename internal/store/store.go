// Package store provides SQLite persistence for users, stocks, quotes and
// wallet transactions. The schema is bootstrapped at open.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Sentinel errors returned by store queries
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS stocks (
	symbol       TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS quotes (
	symbol            TEXT NOT NULL,
	quote_date        TEXT NOT NULL,
	company_name      TEXT NOT NULL DEFAULT '',
	open              REAL NOT NULL DEFAULT 0,
	high              REAL NOT NULL DEFAULT 0,
	low               REAL NOT NULL DEFAULT 0,
	close             REAL NOT NULL DEFAULT 0,
	perf_five_days    REAL NOT NULL DEFAULT 0,
	perf_one_month    REAL NOT NULL DEFAULT 0,
	perf_three_months REAL NOT NULL DEFAULT 0,
	perf_year_to_date REAL NOT NULL DEFAULT 0,
	perf_one_year     REAL NOT NULL DEFAULT 0,
	competitors       TEXT NOT NULL DEFAULT '[]',
	scraped_at        TIMESTAMP NOT NULL,
	PRIMARY KEY (symbol, quote_date)
);

CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL REFERENCES users(id),
	symbol      TEXT NOT NULL,
	operation   TEXT NOT NULL CHECK (operation IN ('buy', 'sell', 'hold')),
	quantity    REAL NOT NULL,
	unit_price  REAL NOT NULL,
	executed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, symbol);
`

// Store wraps the SQLite database handle
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) the SQLite database at path and
// bootstraps the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "store"))

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	logger.Info("database opened", slog.String("path", path))

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
