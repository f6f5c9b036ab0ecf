// Package user is the user directory: registration, profile management
// and identity resolution for the ledger's authorization checks.
package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/eaglebank/api/internal/auth"
	"github.com/eaglebank/api/internal/events"
	"github.com/eaglebank/api/internal/ident"
	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/models"
)

// Store is the persistence contract for user records. CreateUser returns
// ledger.ErrEmailTaken when the email is already registered. DeleteUser
// returns ledger.ErrUserHasAccounts while any account still references
// the user, even when an account appears after the service's own count
// check.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// AccountCounter reports how many accounts a user owns; used to block
// deletion of users with open accounts.
type AccountCounter interface {
	CountAccountsByOwner(ctx context.Context, userID string) (int, error)
}

// AccountCounts is an optional Redis-backed tally of open accounts per
// user, maintained from account events. Advisory only; the delete guard
// always consults the store.
type AccountCounts interface {
	Incr(ctx context.Context, userID string)
	Decr(ctx context.Context, userID string)
}

// Service implements the user directory. It satisfies ledger.UserDirectory.
type Service struct {
	store    Store
	accounts AccountCounter
	counts   AccountCounts
	events   ledger.Events
}

func NewService(store Store, accounts AccountCounter, counts AccountCounts, sink ledger.Events) *Service {
	return &Service{store: store, accounts: accounts, counts: counts, events: sink}
}

// RegisterInput is the validated payload for Register.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	Address     models.Address
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, ledger.Unexpected("failed to hash password", err)
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           ident.GenerateID("usr"),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: passwordHash,
		PhoneNumber:  in.PhoneNumber,
		Address:      in.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserEventsStream, events.UserCreated, events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return user, nil
}

// Get returns a user's own record. Reading anyone else's is Forbidden.
func (s *Service) Get(ctx context.Context, userID, callerID string) (*models.User, error) {
	if userID != callerID {
		return nil, ledger.ErrForbidden
	}
	return s.store.UserByID(ctx, userID)
}

// UpdateInput carries the patchable profile fields. Nil means unchanged.
type UpdateInput struct {
	Name        *string
	Email       *string
	PhoneNumber *string
	Address     *models.Address
}

// Update applies a partial update to the caller's own record.
func (s *Service) Update(ctx context.Context, userID, callerID string, in UpdateInput) (*models.User, error) {
	if userID != callerID {
		return nil, ledger.ErrForbidden
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.PhoneNumber != nil {
		user.PhoneNumber = *in.PhoneNumber
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserEventsStream, events.UserUpdated, events.UserUpdatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return user, nil
}

// Delete removes the caller's own record. Refused while the user still
// owns accounts.
func (s *Service) Delete(ctx context.Context, userID, callerID string) error {
	if userID != callerID {
		return ledger.ErrForbidden
	}
	if _, err := s.store.UserByID(ctx, userID); err != nil {
		return err
	}
	count, err := s.accounts.CountAccountsByOwner(ctx, userID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ledger.ErrUserHasAccounts
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.publish(ctx, events.UserEventsStream, events.UserDeleted, events.UserDeletedEvent{
		UserID: userID,
	})
	return nil
}

// UserByID implements ledger.UserDirectory.
func (s *Service) UserByID(ctx context.Context, id string) (*models.User, error) {
	return s.store.UserByID(ctx, id)
}

// UserByEmail implements ledger.UserDirectory and auth.UserSource.
func (s *Service) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.store.UserByEmail(ctx, email)
}

// HandleAccountEvent keeps the advisory per-user account tally current.
// Duplicate deliveries only skew the tally, never the delete guard.
func (s *Service) HandleAccountEvent(ctx context.Context, event events.Event) error {
	if s.counts == nil {
		return nil
	}
	switch event.Type {
	case events.AccountCreated:
		var data events.AccountCreatedEvent
		if err := events.Decode(event, &data); err != nil {
			return err
		}
		slog.Info("account opened", "userId", data.UserID, "accountNumber", data.AccountNumber)
		s.counts.Incr(ctx, data.UserID)
	case events.AccountDeleted:
		var data events.AccountDeletedEvent
		if err := events.Decode(event, &data); err != nil {
			return err
		}
		slog.Info("account closed", "userId", data.UserID, "accountNumber", data.AccountNumber)
		s.counts.Decr(ctx, data.UserID)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, stream, eventType string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, stream, eventType, data); err != nil {
		slog.Error("failed to publish event", "type", eventType, "error", err)
	}
}
