package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eaglebank/api/internal/events"
	"github.com/eaglebank/api/internal/ident"
	"github.com/eaglebank/api/internal/models"
)

// createRetries bounds the allocate-check-persist loop. Exhausting it means
// sustained contention or a nearly full number range.
const (
	createRetries      = 5
	createRetryBackoff = 25 * time.Millisecond
)

// AccountService owns the account lifecycle. Every operation takes the
// caller's user ID and is authorized against the account's recorded owner.
type AccountService struct {
	store     Store
	users     UserDirectory
	allocator Allocator
	cache     AccountCache
	events    Events
	sortCode  string
	currency  string
}

// AccountServiceConfig carries the deployment constants and the optional
// cache/event collaborators.
type AccountServiceConfig struct {
	SortCode string
	Currency string
	Cache    AccountCache
	Events   Events
}

func NewAccountService(store Store, users UserDirectory, allocator Allocator, cfg AccountServiceConfig) *AccountService {
	if cfg.SortCode == "" {
		cfg.SortCode = "10-10-10"
	}
	if cfg.Currency == "" {
		cfg.Currency = "GBP"
	}
	return &AccountService{
		store:     store,
		users:     users,
		allocator: allocator,
		cache:     cfg.Cache,
		events:    cfg.Events,
		sortCode:  cfg.SortCode,
		currency:  cfg.Currency,
	}
}

// CreateAccountInput is the validated payload for CreateAccount.
type CreateAccountInput struct {
	Name        string
	AccountType string
}

// CreateAccount allocates a number, persists the account with a zero
// balance and returns it. A candidate number that loses the uniqueness
// race at commit is retried with a fresh allocation.
func (s *AccountService) CreateAccount(ctx context.Context, ownerID string, in CreateAccountInput) (*models.Account, error) {
	if in.AccountType != models.AccountTypePersonal && in.AccountType != models.AccountTypeSavings {
		return nil, Validation("unsupported account type", FieldError{
			Field: "accountType", Message: "must be personal or savings", Type: "oneof",
		})
	}

	owner, err := s.users.UserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var account *models.Account
	for attempt := 0; attempt < createRetries; attempt++ {
		number, err := s.allocator.Allocate(ctx)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		candidate := &models.Account{
			AccountNumber: number,
			UserID:        owner.ID,
			SortCode:      s.sortCode,
			Name:          in.Name,
			AccountType:   in.AccountType,
			Currency:      s.currency,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err = s.store.CreateAccount(ctx, candidate)
		if err == nil {
			account = candidate
			break
		}
		if !errors.Is(err, ErrDuplicateAccountNumber) {
			return nil, err
		}
		time.Sleep(createRetryBackoff)
	}
	if account == nil {
		return nil, ErrAllocationExhausted
	}

	s.cacheSet(ctx, account)
	s.publish(ctx, events.AccountEventsStream, events.AccountCreated, events.AccountCreatedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
		Name:          account.Name,
		AccountType:   account.AccountType,
	})
	return account, nil
}

// GetAccount returns the account, cache-first. Existence is checked before
// ownership so an unknown number is NotFound, but someone else's account
// is Forbidden rather than leaking whether it exists through its data.
func (s *AccountService) GetAccount(ctx context.Context, accountNumber, callerID string) (*models.Account, error) {
	if !ident.ValidAccountNumber(accountNumber) {
		return nil, Validation("invalid account number format", FieldError{
			Field: "accountNumber", Message: "must match 01 followed by six digits", Type: "format",
		})
	}
	if s.cache != nil {
		if account, ok := s.cache.Get(ctx, accountNumber); ok {
			if account.UserID != callerID {
				return nil, ErrForbidden
			}
			return account, nil
		}
	}
	account, err := s.store.Account(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, account)
	if account.UserID != callerID {
		return nil, ErrForbidden
	}
	return account, nil
}

// ListAccounts returns all accounts owned by the caller.
func (s *AccountService) ListAccounts(ctx context.Context, callerID string) ([]models.Account, error) {
	return s.store.AccountsByOwner(ctx, callerID)
}

// UpdateAccountInput carries the patchable fields. Nil means "leave as is";
// owner, balance, currency and number are not patchable at all.
type UpdateAccountInput struct {
	Name        *string
	AccountType *string
}

// UpdateAccount applies a partial update to the caller's own account.
func (s *AccountService) UpdateAccount(ctx context.Context, accountNumber, callerID string, in UpdateAccountInput) (*models.Account, error) {
	account, err := s.GetAccount(ctx, accountNumber, callerID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		account.Name = *in.Name
	}
	if in.AccountType != nil {
		if *in.AccountType != models.AccountTypePersonal && *in.AccountType != models.AccountTypeSavings {
			return nil, Validation("unsupported account type", FieldError{
				Field: "accountType", Message: "must be personal or savings", Type: "oneof",
			})
		}
		account.AccountType = *in.AccountType
	}
	account.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, account)
	s.publish(ctx, events.AccountEventsStream, events.AccountUpdated, events.AccountUpdatedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
		Name:          account.Name,
	})
	return account, nil
}

// DeleteAccount removes the caller's own account. Deletion is refused
// while any transaction references the account; ledger history is never
// dropped implicitly.
func (s *AccountService) DeleteAccount(ctx context.Context, accountNumber, callerID string) error {
	account, err := s.GetAccount(ctx, accountNumber, callerID)
	if err != nil {
		return err
	}
	hasTransactions, err := s.store.AccountHasTransactions(ctx, accountNumber)
	if err != nil {
		return err
	}
	if hasTransactions {
		return ErrAccountHasTransactions
	}
	if err := s.store.DeleteAccount(ctx, accountNumber); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Delete(ctx, accountNumber)
	}
	s.publish(ctx, events.AccountEventsStream, events.AccountDeleted, events.AccountDeletedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
	})
	return nil
}

func (s *AccountService) cacheSet(ctx context.Context, account *models.Account) {
	if s.cache != nil {
		s.cache.Set(ctx, account)
	}
}

func (s *AccountService) publish(ctx context.Context, stream, eventType string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, stream, eventType, data); err != nil {
		slog.Error("failed to publish event", "type", eventType, "error", err)
	}
}
