package user_test

import (
	"context"
	"testing"

	"github.com/eaglebank/api/internal/auth"
	"github.com/eaglebank/api/internal/ident"
	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/models"
	"github.com/eaglebank/api/internal/storage/memory"
	"github.com/eaglebank/api/internal/user"
	"github.com/stretchr/testify/require"
)

func newService() (*user.Service, *memory.Store) {
	store := memory.NewStore()
	return user.NewService(store, store, nil, nil), store
}

func registerInput(email string) user.RegisterInput {
	return user.RegisterInput{
		Name:        "Test User",
		Email:       email,
		Password:    "s3cret-pass",
		PhoneNumber: "+441234567890",
		Address: models.Address{
			Line1: "1 High Street", Town: "London", County: "Greater London", Postcode: "E1 6AN",
		},
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, _ := newService()

	u, err := svc.Register(context.Background(), registerInput("alice@example.com"))
	require.NoError(t, err)
	require.True(t, ident.ValidUserID(u.ID))
	require.NotEqual(t, "s3cret-pass", u.PasswordHash)
	require.True(t, auth.CheckPassword("s3cret-pass", u.PasswordHash))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Register(context.Background(), registerInput("alice@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerInput("alice@example.com"))
	require.ErrorIs(t, err, ledger.ErrEmailTaken)
}

func TestGetIsSelfOnly(t *testing.T) {
	svc, _ := newService()
	alice, err := svc.Register(context.Background(), registerInput("alice@example.com"))
	require.NoError(t, err)
	bob, err := svc.Register(context.Background(), registerInput("bob@example.com"))
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), alice.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, alice.Email, got.Email)

	_, err = svc.Get(context.Background(), alice.ID, bob.ID)
	require.ErrorIs(t, err, ledger.ErrForbidden)
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	svc, _ := newService()
	alice, err := svc.Register(context.Background(), registerInput("alice@example.com"))
	require.NoError(t, err)

	newName := "Alice Smith"
	updated, err := svc.Update(context.Background(), alice.ID, alice.ID, user.UpdateInput{Name: &newName})
	require.NoError(t, err)
	require.Equal(t, "Alice Smith", updated.Name)
	require.Equal(t, alice.Email, updated.Email)
	require.Equal(t, alice.PhoneNumber, updated.PhoneNumber)
}

func TestDeleteBlockedWhileAccountsExist(t *testing.T) {
	svc, store := newService()
	alice, err := svc.Register(context.Background(), registerInput("alice@example.com"))
	require.NoError(t, err)

	accounts := ledger.NewAccountService(store, svc, ledger.NewSequentialAllocator(store), ledger.AccountServiceConfig{})
	_, err = accounts.CreateAccount(context.Background(), alice.ID, ledger.CreateAccountInput{
		Name: "Main", AccountType: models.AccountTypePersonal,
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), alice.ID, alice.ID)
	require.ErrorIs(t, err, ledger.ErrUserHasAccounts)

	// Still present.
	_, err = svc.Get(context.Background(), alice.ID, alice.ID)
	require.NoError(t, err)
}

// The store itself refuses to drop a user who still owns accounts, so an
// account created between the service's count check and the delete still
// surfaces as the documented conflict rather than an internal error.
func TestStoreDeleteUserBlockedByAccounts(t *testing.T) {
	svc, store := newService()
	alice, err := svc.Register(context.Background(), registerInput("alice@example.com"))
	require.NoError(t, err)

	accounts := ledger.NewAccountService(store, svc, ledger.NewSequentialAllocator(store), ledger.AccountServiceConfig{})
	_, err = accounts.CreateAccount(context.Background(), alice.ID, ledger.CreateAccountInput{
		Name: "Main", AccountType: models.AccountTypePersonal,
	})
	require.NoError(t, err)

	err = store.DeleteUser(context.Background(), alice.ID)
	require.ErrorIs(t, err, ledger.ErrUserHasAccounts)
}

func TestDeleteWithoutAccounts(t *testing.T) {
	svc, _ := newService()
	alice, err := svc.Register(context.Background(), registerInput("alice@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), alice.ID, alice.ID))

	_, err = svc.Get(context.Background(), alice.ID, alice.ID)
	require.ErrorIs(t, err, ledger.ErrUserNotFound)
}
