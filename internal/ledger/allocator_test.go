package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/eaglebank/api/internal/ident"
	"github.com/eaglebank/api/internal/ledger"
	"github.com/eaglebank/api/internal/models"
	"github.com/eaglebank/api/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, store *memory.Store, number string) {
	t.Helper()
	now := time.Now().UTC()
	err := store.CreateAccount(context.Background(), &models.Account{
		AccountNumber: number,
		UserID:        "usr-owner",
		SortCode:      "10-10-10",
		Name:          "seed",
		AccountType:   models.AccountTypePersonal,
		Currency:      "GBP",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
}

func TestSequentialAllocatorSeedsFirstNumber(t *testing.T) {
	store := memory.NewStore()
	allocator := ledger.NewSequentialAllocator(store)

	number, err := allocator.Allocate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "01000001", number)
}

func TestSequentialAllocatorIncrementsHighest(t *testing.T) {
	store := memory.NewStore()
	seedAccount(t, store, "01000041")
	seedAccount(t, store, "01000007")

	allocator := ledger.NewSequentialAllocator(store)
	number, err := allocator.Allocate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "01000042", number)
}

func TestSequentialAllocatorExhaustsRange(t *testing.T) {
	store := memory.NewStore()
	seedAccount(t, store, "01999999")

	allocator := ledger.NewSequentialAllocator(store)
	_, err := allocator.Allocate(context.Background())
	require.ErrorIs(t, err, ledger.ErrAllocationExhausted)
	require.Equal(t, ledger.KindConflict, ledger.KindOf(err))
}

func TestRandomAllocatorProducesValidNumbers(t *testing.T) {
	store := memory.NewStore()
	allocator := ledger.NewRandomAllocator(store)

	for i := 0; i < 50; i++ {
		number, err := allocator.Allocate(context.Background())
		require.NoError(t, err)
		require.True(t, ident.ValidAccountNumber(number), "got %q", number)
	}
}

func TestRandomAllocatorSkipsTakenNumbers(t *testing.T) {
	store := memory.NewStore()
	allocator := ledger.NewRandomAllocator(store)

	taken := make(map[string]bool)
	for i := 0; i < 20; i++ {
		number, err := allocator.Allocate(context.Background())
		require.NoError(t, err)
		require.False(t, taken[number], "allocator returned a live number twice: %s", number)
		taken[number] = true
		seedAccount(t, store, number)
	}
}
