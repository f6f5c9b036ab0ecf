// Package ledger owns the account-and-transaction core: account number
// allocation, account lifecycle and deposit/withdrawal application. All
// persistence goes through the Store interface; all authorization is
// checked here against the owning user recorded on each account.
package ledger

import (
	"context"

	"github.com/eaglebank/api/internal/models"
)

// ApplyFunc runs inside ApplyTransaction with the account row locked.
// It validates the requested mutation, updates the account balance in
// place and returns the transaction record to persist. Returning an
// error aborts the whole unit.
type ApplyFunc func(account *models.Account) (*models.Transaction, error)

// Store is the persistence contract for accounts and transactions.
//
// Implementations must guarantee:
//   - CreateAccount returns ErrDuplicateAccountNumber when the account
//     number is already taken, even under concurrent creations.
//   - ApplyTransaction serialises against other mutations of the same
//     account and commits the balance update and the transaction record
//     as one atomic unit, or neither.
type Store interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	Account(ctx context.Context, accountNumber string) (*models.Account, error)
	AccountsByOwner(ctx context.Context, userID string) ([]models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, accountNumber string) error
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
	HighestAccountNumber(ctx context.Context) (string, error)
	CountAccountsByOwner(ctx context.Context, userID string) (int, error)

	ApplyTransaction(ctx context.Context, accountNumber string, fn ApplyFunc) (*models.Transaction, error)
	Transaction(ctx context.Context, accountNumber, transactionID string) (*models.Transaction, error)
	TransactionsByAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error)
	AccountHasTransactions(ctx context.Context, accountNumber string) (bool, error)
}

// UserDirectory resolves caller identities. Supplied by the user package;
// the ledger never reads or writes user records itself.
type UserDirectory interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AccountCache is an optional read-model cache for account views.
// Misses and write failures are non-fatal.
type AccountCache interface {
	Get(ctx context.Context, accountNumber string) (*models.Account, bool)
	Set(ctx context.Context, account *models.Account)
	Delete(ctx context.Context, accountNumber string)
}

// Events is the post-commit notification sink. Satisfied by
// events.Publisher; a nil sink disables publishing.
type Events interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}
