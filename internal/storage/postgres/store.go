// Package postgres is the PostgreSQL write store. Account numbers and
// emails are guarded by unique constraints; transaction application runs
// inside a database transaction with the account row locked.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/api/internal/ident"
	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/models"
	"github.com/lib/pq"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

// ---- ledger.Store ----

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (account_number, user_id, sort_code, name, account_type, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		account.AccountNumber, account.UserID, account.SortCode, account.Name,
		account.AccountType, account.Balance, account.Currency,
		account.CreatedAt, account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ledger.ErrDuplicateAccountNumber
	}
	if err != nil {
		return ledger.Unexpected("failed to create account", err)
	}
	return nil
}

const accountColumns = "account_number, user_id, sort_code, name, account_type, balance, currency, created_at, updated_at"

func scanAccount(row interface{ Scan(...any) error }, account *models.Account) error {
	return row.Scan(
		&account.AccountNumber, &account.UserID, &account.SortCode, &account.Name,
		&account.AccountType, &account.Balance, &account.Currency,
		&account.CreatedAt, &account.UpdatedAt,
	)
}

func (s *Store) Account(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE account_number = $1", accountColumns)
	var account models.Account
	err := scanAccount(s.db.QueryRowContext(ctx, query, accountNumber), &account)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, ledger.Unexpected("failed to get account", err)
	}
	return &account, nil
}

func (s *Store) AccountsByOwner(ctx context.Context, userID string) ([]models.Account, error) {
	query := fmt.Sprintf("SELECT %s FROM accounts WHERE user_id = $1 ORDER BY created_at DESC, account_number DESC", accountColumns)
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, ledger.Unexpected("failed to list accounts", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := scanAccount(rows, &account); err != nil {
			return nil, ledger.Unexpected("failed to scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Unexpected("failed to list accounts", err)
	}
	return accounts, nil
}

func (s *Store) UpdateAccount(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, account_type = $3, updated_at = $4
		WHERE account_number = $1
	`
	result, err := s.db.ExecContext(ctx, query, account.AccountNumber, account.Name, account.AccountType, account.UpdatedAt)
	if err != nil {
		return ledger.Unexpected("failed to update account", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ledger.Unexpected("failed to check rows affected", err)
	}
	if rows == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountNumber string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM accounts WHERE account_number = $1", accountNumber)
	if err != nil {
		return ledger.Unexpected("failed to delete account", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ledger.Unexpected("failed to check rows affected", err)
	}
	if rows == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (s *Store) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)", accountNumber).Scan(&exists)
	if err != nil {
		return false, ledger.Unexpected("failed to check account number", err)
	}
	return exists, nil
}

func (s *Store) HighestAccountNumber(ctx context.Context) (string, error) {
	query := "SELECT COALESCE(MAX(account_number), '') FROM accounts WHERE account_number LIKE $1"
	var highest string
	if err := s.db.QueryRowContext(ctx, query, ident.AccountNumberPrefix+"%").Scan(&highest); err != nil {
		return "", ledger.Unexpected("failed to read highest account number", err)
	}
	return highest, nil
}

func (s *Store) CountAccountsByOwner(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		return 0, ledger.Unexpected("failed to count accounts", err)
	}
	return count, nil
}

// ApplyTransaction locks the account row, runs fn and commits the balance
// update together with the transaction insert. Any fn error rolls the
// whole unit back.
func (s *Store) ApplyTransaction(ctx context.Context, accountNumber string, fn ledger.ApplyFunc) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, ledger.Unexpected("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf("SELECT %s FROM accounts WHERE account_number = $1 FOR UPDATE", accountColumns)
	var account models.Account
	err = scanAccount(tx.QueryRowContext(ctx, query, accountNumber), &account)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, ledger.Unexpected("failed to lock account", err)
	}

	transaction, err := fn(&account)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE accounts SET balance = $2, updated_at = $3 WHERE account_number = $1",
		account.AccountNumber, account.Balance, account.UpdatedAt,
	)
	if err != nil {
		return nil, ledger.Unexpected("failed to update balance", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_number, user_id, amount, currency, type, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		transaction.ID, transaction.AccountNumber, transaction.UserID,
		transaction.Amount, transaction.Currency, transaction.Type,
		nullString(transaction.Reference), transaction.CreatedAt,
	)
	if err != nil {
		return nil, ledger.Unexpected("failed to insert transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, ledger.Unexpected("failed to commit transaction", err)
	}
	return transaction, nil
}

const transactionColumns = "id, account_number, user_id, amount, currency, type, reference, created_at"

func scanTransaction(row interface{ Scan(...any) error }, transaction *models.Transaction) error {
	var reference sql.NullString
	err := row.Scan(
		&transaction.ID, &transaction.AccountNumber, &transaction.UserID,
		&transaction.Amount, &transaction.Currency, &transaction.Type,
		&reference, &transaction.CreatedAt,
	)
	if err != nil {
		return err
	}
	if reference.Valid {
		transaction.Reference = reference.String
	}
	return nil
}

func (s *Store) Transaction(ctx context.Context, accountNumber, transactionID string) (*models.Transaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE id = $1 AND account_number = $2", transactionColumns)
	var transaction models.Transaction
	err := scanTransaction(s.db.QueryRowContext(ctx, query, transactionID, accountNumber), &transaction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return nil, ledger.Unexpected("failed to get transaction", err)
	}
	return &transaction, nil
}

func (s *Store) TransactionsByAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE account_number = $1 ORDER BY created_at DESC, id DESC", transactionColumns)
	rows, err := s.db.QueryContext(ctx, query, accountNumber)
	if err != nil {
		return nil, ledger.Unexpected("failed to list transactions", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var transaction models.Transaction
		if err := scanTransaction(rows, &transaction); err != nil {
			return nil, ledger.Unexpected("failed to scan transaction", err)
		}
		transactions = append(transactions, transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Unexpected("failed to list transactions", err)
	}
	return transactions, nil
}

func (s *Store) AccountHasTransactions(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM transactions WHERE account_number = $1)", accountNumber).Scan(&exists)
	if err != nil {
		return false, ledger.Unexpected("failed to check transactions", err)
	}
	return exists, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
