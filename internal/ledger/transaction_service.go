package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/eaglebank/api/internal/events"
	"github.com/eaglebank/api/internal/ident"
	"github.com/eaglebank/api/internal/models"
	"github.com/shopspring/decimal"
)

// TransactionService validates and applies deposits and withdrawals.
// Balance mutation and transaction insertion always go through
// Store.ApplyTransaction so they commit as one atomic unit.
type TransactionService struct {
	store     Store
	cache     AccountCache
	events    Events
	maxAmount decimal.Decimal
}

type TransactionServiceConfig struct {
	// MaxAmount is the per-transaction upper bound. Zero means the
	// default of 10,000.00.
	MaxAmount decimal.Decimal
	Cache     AccountCache
	Events    Events
}

func NewTransactionService(store Store, cfg TransactionServiceConfig) *TransactionService {
	if cfg.MaxAmount.IsZero() {
		cfg.MaxAmount = decimal.NewFromInt(10000)
	}
	return &TransactionService{
		store:     store,
		cache:     cfg.Cache,
		events:    cfg.Events,
		maxAmount: cfg.MaxAmount,
	}
}

// CreateTransactionInput is the validated payload for CreateTransaction.
// An empty Currency means the account's own currency; a non-empty one
// must match it.
type CreateTransactionInput struct {
	Type      string
	Amount    decimal.Decimal
	Currency  string
	Reference string
}

// CreateTransaction applies a deposit or withdrawal to the caller's own
// account. The ownership and sufficient-funds checks run with the account
// row locked, so concurrent withdrawals cannot jointly overdraw.
func (s *TransactionService) CreateTransaction(ctx context.Context, accountNumber, callerID string, in CreateTransactionInput) (*models.Transaction, error) {
	if !ident.ValidAccountNumber(accountNumber) {
		return nil, Validation("invalid account number format", FieldError{
			Field: "accountNumber", Message: "must match 01 followed by six digits", Type: "format",
		})
	}
	if in.Type != models.TransactionDeposit && in.Type != models.TransactionWithdrawal {
		return nil, Validation("unsupported transaction type", FieldError{
			Field: "type", Message: "must be deposit or withdrawal", Type: "oneof",
		})
	}
	if !in.Amount.IsPositive() {
		return nil, Validation("invalid amount", FieldError{
			Field: "amount", Message: "must be greater than zero", Type: "gt",
		})
	}
	if in.Amount.GreaterThan(s.maxAmount) {
		return nil, Validation("invalid amount", FieldError{
			Field: "amount", Message: "must not exceed " + s.maxAmount.StringFixed(2), Type: "lte",
		})
	}

	var updated models.Account
	transaction, err := s.store.ApplyTransaction(ctx, accountNumber, func(account *models.Account) (*models.Transaction, error) {
		if account.UserID != callerID {
			return nil, ErrForbidden
		}
		if in.Currency != "" && in.Currency != account.Currency {
			return nil, Validation("unsupported currency", FieldError{
				Field: "currency", Message: "must be " + account.Currency, Type: "oneof",
			})
		}
		switch in.Type {
		case models.TransactionDeposit:
			account.Balance = account.Balance.Add(in.Amount)
		case models.TransactionWithdrawal:
			if account.Balance.LessThan(in.Amount) {
				return nil, ErrInsufficientFunds
			}
			account.Balance = account.Balance.Sub(in.Amount)
		}
		now := time.Now().UTC()
		account.UpdatedAt = now
		updated = *account
		return &models.Transaction{
			ID:            ident.GenerateID("tan"),
			AccountNumber: account.AccountNumber,
			UserID:        callerID,
			Amount:        in.Amount,
			Currency:      account.Currency,
			Type:          in.Type,
			Reference:     in.Reference,
			CreatedAt:     now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, &updated)
	}
	change := in.Amount
	if in.Type == models.TransactionWithdrawal {
		change = change.Neg()
	}
	s.publish(ctx, events.TransactionEventsStream, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID: transaction.ID,
		AccountNumber: transaction.AccountNumber,
		UserID:        transaction.UserID,
		Amount:        transaction.Amount,
		Type:          transaction.Type,
		Currency:      transaction.Currency,
	})
	s.publish(ctx, events.AccountEventsStream, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountNumber: updated.AccountNumber,
		NewBalance:    updated.Balance,
		Change:        change,
	})
	return transaction, nil
}

// ListTransactions returns the account's transactions newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, accountNumber, callerID string) ([]models.Transaction, error) {
	if err := s.authorize(ctx, accountNumber, callerID); err != nil {
		return nil, err
	}
	return s.store.TransactionsByAccount(ctx, accountNumber)
}

// GetTransaction returns a single transaction. A transaction that exists
// but belongs to a different account is NotFound, not Forbidden.
func (s *TransactionService) GetTransaction(ctx context.Context, accountNumber, transactionID, callerID string) (*models.Transaction, error) {
	if !ident.ValidTransactionID(transactionID) {
		return nil, Validation("invalid transaction ID format", FieldError{
			Field: "transactionId", Message: "must be a tan- prefixed identifier", Type: "format",
		})
	}
	if err := s.authorize(ctx, accountNumber, callerID); err != nil {
		return nil, err
	}
	return s.store.Transaction(ctx, accountNumber, transactionID)
}

func (s *TransactionService) authorize(ctx context.Context, accountNumber, callerID string) error {
	if !ident.ValidAccountNumber(accountNumber) {
		return Validation("invalid account number format", FieldError{
			Field: "accountNumber", Message: "must match 01 followed by six digits", Type: "format",
		})
	}
	account, err := s.store.Account(ctx, accountNumber)
	if err != nil {
		return err
	}
	if account.UserID != callerID {
		return ErrForbidden
	}
	return nil
}

func (s *TransactionService) publish(ctx context.Context, stream, eventType string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, stream, eventType, data); err != nil {
		slog.Error("failed to publish event", "type", eventType, "error", err)
	}
}
