package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the tables and indexes if they do not exist yet.
// Full migration tooling is out of scope; this bootstrap is enough for a
// fresh database and is a no-op on an existing one.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			phone_number  TEXT NOT NULL DEFAULT '',
			address_line1 TEXT NOT NULL DEFAULT '',
			address_line2 TEXT,
			address_line3 TEXT,
			town          TEXT NOT NULL DEFAULT '',
			county        TEXT NOT NULL DEFAULT '',
			postcode      TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			account_number TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES users (id),
			sort_code      TEXT NOT NULL,
			name           TEXT NOT NULL,
			account_type   TEXT NOT NULL,
			balance        NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			currency       TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id             TEXT PRIMARY KEY,
			account_number TEXT NOT NULL REFERENCES accounts (account_number),
			user_id        TEXT NOT NULL,
			amount         NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
			currency       TEXT NOT NULL,
			type           TEXT NOT NULL,
			reference      TEXT,
			created_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account_number ON transactions (account_number)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions (account_number, created_at)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
