package auth

import (
	"context"
	"errors"

	"github.com/eaglebank/api/internal/models"
)

// ErrInvalidCredentials is returned for any login failure. The same value
// covers unknown email and wrong password so neither can be distinguished
// by a caller probing for registered addresses.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserSource resolves users by email. Satisfied by the user service.
type UserSource interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service handles login and token refresh.
type Service struct {
	users  UserSource
	tokens *TokenService
}

func NewService(users UserSource, tokens *TokenService) *Service {
	return &Service{users: users, tokens: tokens}
}

// Login verifies credentials and returns a fresh bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if !CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(user.ID, user.Email)
}

// Refresh exchanges a still-valid token for a new one.
func (s *Service) Refresh(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return "", ErrInvalidToken
	}
	return s.tokens.Issue(claims.UserID, claims.Email)
}
