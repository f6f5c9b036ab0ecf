// Package memory is an in-process implementation of the ledger and user
// stores. It backs the service test suites and local development without
// PostgreSQL. A single mutex serialises all mutations, which trivially
// satisfies the atomicity contract of ApplyTransaction.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/eaglebank/api/internal/ident"
	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/models"
)

type storedTransaction struct {
	models.Transaction
	seq int
}

type Store struct {
	mu           sync.Mutex
	users        map[string]models.User // by user ID
	usersByEmail map[string]string      // email -> user ID
	accounts     map[string]models.Account
	transactions map[string][]storedTransaction // by account number
	nextSeq      int
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]models.User),
		usersByEmail: make(map[string]string),
		accounts:     make(map[string]models.Account),
		transactions: make(map[string][]storedTransaction),
	}
}

// ---- ledger.Store ----

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountNumber]; exists {
		return ledger.ErrDuplicateAccountNumber
	}
	s.accounts[account.AccountNumber] = *account
	return nil
}

func (s *Store) Account(ctx context.Context, accountNumber string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountNumber]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return &account, nil
}

func (s *Store) AccountsByOwner(ctx context.Context, userID string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var accounts []models.Account
	for _, account := range s.accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].AccountNumber > accounts[j].AccountNumber
		}
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (s *Store) UpdateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountNumber]; !ok {
		return ledger.ErrAccountNotFound
	}
	s.accounts[account.AccountNumber] = *account
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountNumber]; !ok {
		return ledger.ErrAccountNotFound
	}
	delete(s.accounts, accountNumber)
	return nil
}

func (s *Store) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[accountNumber]
	return ok, nil
}

func (s *Store) HighestAccountNumber(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	highest := ""
	for number := range s.accounts {
		if strings.HasPrefix(number, ident.AccountNumberPrefix) && number > highest {
			highest = number
		}
	}
	return highest, nil
}

func (s *Store) CountAccountsByOwner(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, account := range s.accounts {
		if account.UserID == userID {
			count++
		}
	}
	return count, nil
}

// ApplyTransaction runs fn on a copy of the account under the store lock
// and persists the mutated account and the new transaction together only
// when fn succeeds.
func (s *Store) ApplyTransaction(ctx context.Context, accountNumber string, fn ledger.ApplyFunc) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountNumber]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	transaction, err := fn(&account)
	if err != nil {
		return nil, err
	}
	s.accounts[accountNumber] = account
	s.nextSeq++
	s.transactions[accountNumber] = append(s.transactions[accountNumber], storedTransaction{
		Transaction: *transaction,
		seq:         s.nextSeq,
	})
	return transaction, nil
}

func (s *Store) Transaction(ctx context.Context, accountNumber, transactionID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.transactions[accountNumber] {
		if stored.ID == transactionID {
			transaction := stored.Transaction
			return &transaction, nil
		}
	}
	return nil, ledger.ErrTransactionNotFound
}

func (s *Store) TransactionsByAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]storedTransaction, len(s.transactions[accountNumber]))
	copy(stored, s.transactions[accountNumber])
	// Newest first; the insertion sequence breaks same-timestamp ties.
	sort.Slice(stored, func(i, j int) bool {
		if stored[i].CreatedAt.Equal(stored[j].CreatedAt) {
			return stored[i].seq > stored[j].seq
		}
		return stored[i].CreatedAt.After(stored[j].CreatedAt)
	})
	transactions := make([]models.Transaction, 0, len(stored))
	for _, t := range stored {
		transactions = append(transactions, t.Transaction)
	}
	return transactions, nil
}

func (s *Store) AccountHasTransactions(ctx context.Context, accountNumber string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions[accountNumber]) > 0, nil
}

// ---- user.Store ----

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usersByEmail[user.Email]; taken {
		return ledger.ErrEmailTaken
	}
	s.users[user.ID] = *user
	s.usersByEmail[user.Email] = user.ID
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ledger.ErrUserNotFound
	}
	return &user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, ledger.ErrUserNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return ledger.ErrUserNotFound
	}
	if existing.Email != user.Email {
		if _, taken := s.usersByEmail[user.Email]; taken {
			return ledger.ErrEmailTaken
		}
		delete(s.usersByEmail, existing.Email)
		s.usersByEmail[user.Email] = user.ID
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return ledger.ErrUserNotFound
	}
	// Mirrors the accounts.user_id foreign key in Postgres.
	for _, account := range s.accounts {
		if account.UserID == id {
			return ledger.ErrUserHasAccounts
		}
	}
	delete(s.usersByEmail, user.Email)
	delete(s.users, id)
	return nil
}
