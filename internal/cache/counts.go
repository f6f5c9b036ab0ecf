package cache

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
)

const accountCountKeyPrefix = "user:accounts:count:"

// AccountCounts keeps an advisory tally of open accounts per user,
// maintained from account events. It satisfies user.AccountCounts.
type AccountCounts struct {
	client *goredis.Client
}

func NewAccountCounts(client *goredis.Client) *AccountCounts {
	return &AccountCounts{client: client}
}

func (c *AccountCounts) Incr(ctx context.Context, userID string) {
	if err := c.client.Incr(ctx, accountCountKeyPrefix+userID).Err(); err != nil {
		slog.Error("failed to increment account count", "userId", userID, "error", err)
	}
}

func (c *AccountCounts) Decr(ctx context.Context, userID string) {
	if err := c.client.Decr(ctx, accountCountKeyPrefix+userID).Err(); err != nil {
		slog.Error("failed to decrement account count", "userId", userID, "error", err)
	}
}

// Get returns the tallied count, or 0 when the key is absent or Redis is
// unreachable.
func (c *AccountCounts) Get(ctx context.Context, userID string) int64 {
	n, err := c.client.Get(ctx, accountCountKeyPrefix+userID).Int64()
	if err != nil {
		return 0
	}
	return n
}
