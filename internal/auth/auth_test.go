package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/eaglebank/api/internal/auth"
	"github.com/eaglebank/api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	signed, err := tokens.Issue("usr-abc123", "alice@example.com")
	require.NoError(t, err)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "usr-abc123", claims.UserID)
	require.Equal(t, "alice@example.com", claims.Email)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer, err := auth.NewTokenService("secret-one", time.Hour)
	require.NoError(t, err)
	verifier, err := auth.NewTokenService("secret-two", time.Hour)
	require.NoError(t, err)

	signed, err := issuer.Issue("usr-abc123", "alice@example.com")
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenRejectsTampered(t *testing.T) {
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	signed, err := tokens.Issue("usr-abc123", "alice@example.com")
	require.NoError(t, err)

	_, err = tokens.Verify(signed + "tampered")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := auth.NewTokenService("", time.Hour)
	require.Error(t, err)
}

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (*models.User, error) {
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, auth.ErrInvalidCredentials
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	svc := auth.NewService(&fakeUsers{user: &models.User{
		ID: "usr-abc123", Email: "alice@example.com", PasswordHash: hash,
	}}, tokens)

	signed, err := svc.Login(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, "usr-abc123", claims.UserID)

	_, err = svc.Login(context.Background(), "alice@example.com", "wrong password")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestRefresh(t *testing.T) {
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	svc := auth.NewService(&fakeUsers{}, tokens)

	signed, err := tokens.Issue("usr-abc123", "alice@example.com")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), signed)
	require.NoError(t, err)
	claims, err := tokens.Verify(refreshed)
	require.NoError(t, err)
	require.Equal(t, "usr-abc123", claims.UserID)

	_, err = svc.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}
