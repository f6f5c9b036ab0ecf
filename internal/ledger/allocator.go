package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/eaglebank/api/internal/ident"
)

// Allocator produces candidate account numbers. Uniqueness is ultimately
// enforced by the store's unique constraint at commit time; AccountService
// retries allocation when a candidate loses that race.
type Allocator interface {
	Allocate(ctx context.Context) (string, error)
}

// seed is the first number handed out when no accounts exist yet.
const seedAccountNumber = "01000001"

const maxAccountSuffix = 999999

// SequentialAllocator hands out the next number after the highest one
// currently allocated. The read-then-increment is not atomic on its own;
// a concurrent creation with the same candidate is caught by the store's
// unique constraint and retried by the caller.
type SequentialAllocator struct {
	store Store
}

func NewSequentialAllocator(store Store) *SequentialAllocator {
	return &SequentialAllocator{store: store}
}

func (a *SequentialAllocator) Allocate(ctx context.Context) (string, error) {
	highest, err := a.store.HighestAccountNumber(ctx)
	if err != nil {
		return "", Unexpected("failed to read highest account number", err)
	}
	if highest == "" {
		return seedAccountNumber, nil
	}
	suffix, err := strconv.Atoi(highest[len(ident.AccountNumberPrefix):])
	if err != nil {
		return "", Unexpected("malformed account number in store", err)
	}
	if suffix >= maxAccountSuffix {
		return "", ErrAllocationExhausted
	}
	return fmt.Sprintf("%s%0*d", ident.AccountNumberPrefix, ident.AccountNumberDigits, suffix+1), nil
}

// randomDrawAttempts bounds the collision re-draw loop. With a million
// numbers in the range, exhausting this means the space is nearly full.
const randomDrawAttempts = 10

// RandomAllocator draws uniformly random numbers in the valid range and
// re-draws on collision with an existing account.
type RandomAllocator struct {
	store Store
}

func NewRandomAllocator(store Store) *RandomAllocator {
	return &RandomAllocator{store: store}
}

func (a *RandomAllocator) Allocate(ctx context.Context) (string, error) {
	for i := 0; i < randomDrawAttempts; i++ {
		candidate := ident.RandomAccountNumber()
		exists, err := a.store.AccountNumberExists(ctx, candidate)
		if err != nil {
			return "", Unexpected("failed to check account number", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrAllocationExhausted
}
