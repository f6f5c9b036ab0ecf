package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/models"
)

const userColumns = "id, name, email, password_hash, phone_number, address_line1, address_line2, address_line3, town, county, postcode, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }, user *models.User) error {
	var line2, line3 sql.NullString
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.PhoneNumber,
		&user.Address.Line1, &line2, &line3,
		&user.Address.Town, &user.Address.County, &user.Address.Postcode,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if line2.Valid {
		user.Address.Line2 = line2.String
	}
	if line3.Valid {
		user.Address.Line3 = line3.String
	}
	return nil
}

// ---- user.Store ----

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, phone_number, address_line1, address_line2, address_line3, town, county, postcode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.PhoneNumber,
		user.Address.Line1, nullString(user.Address.Line2), nullString(user.Address.Line3),
		user.Address.Town, user.Address.County, user.Address.Postcode,
		user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ledger.ErrEmailTaken
	}
	if err != nil {
		return ledger.Unexpected("failed to create user", err)
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	err := scanUser(s.db.QueryRowContext(ctx, query, id), &user)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrUserNotFound
	}
	if err != nil {
		return nil, ledger.Unexpected("failed to get user", err)
	}
	return &user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1", userColumns)
	var user models.User
	err := scanUser(s.db.QueryRowContext(ctx, query, email), &user)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrUserNotFound
	}
	if err != nil {
		return nil, ledger.Unexpected("failed to get user", err)
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, phone_number = $4,
		    address_line1 = $5, address_line2 = $6, address_line3 = $7,
		    town = $8, county = $9, postcode = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PhoneNumber,
		user.Address.Line1, nullString(user.Address.Line2), nullString(user.Address.Line3),
		user.Address.Town, user.Address.County, user.Address.Postcode,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ledger.ErrEmailTaken
	}
	if err != nil {
		return ledger.Unexpected("failed to update user", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ledger.Unexpected("failed to check rows affected", err)
	}
	if rows == 0 {
		return ledger.ErrUserNotFound
	}
	return nil
}

// DeleteUser removes the user row. The service checks the account count
// first, but an account created between that check and the delete hits
// the accounts.user_id foreign key; that race maps to the same Conflict.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if isForeignKeyViolation(err) {
		return ledger.ErrUserHasAccounts
	}
	if err != nil {
		return ledger.Unexpected("failed to delete user", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ledger.Unexpected("failed to check rows affected", err)
	}
	if rows == 0 {
		return ledger.ErrUserNotFound
	}
	return nil
}
