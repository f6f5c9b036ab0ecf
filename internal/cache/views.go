package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/eaglebank/api/internal/models"
	goredis "github.com/redis/go-redis/v9"
)

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// Bind it to a specific view type T; each instance holds a Redis client and an
// optional TTL (pass 0 for keys that should not expire).
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewViewCache creates a ViewCache backed by the provided Redis client.
func NewViewCache[T any](client *goredis.Client, ttl time.Duration) *ViewCache[T] {
	return &ViewCache[T]{client: client, ttl: ttl}
}

// Get retrieves and unmarshals a value from Redis.
// Returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Set marshals value and stores it in Redis under key.
// Errors are logged rather than returned; a cache write miss is non-fatal.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("view cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Error("view cache write failed", "key", key, "error", err)
	}
}

// Delete removes a key from Redis.
func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		slog.Error("view cache delete failed", "key", key, "error", err)
	}
}

const accountViewKeyPrefix = "account:view:"

// accountEntry is the internal Redis representation of an account. Unlike
// the API response it carries UserID so ownership checks can be served
// from the cache.
type accountEntry struct {
	models.Account
	UserID string `json:"userId"`
}

// AccountViews caches full account records keyed by account number.
// It satisfies ledger.AccountCache.
type AccountViews struct {
	cache *ViewCache[accountEntry]
}

func NewAccountViews(client *goredis.Client, ttl time.Duration) *AccountViews {
	return &AccountViews{cache: NewViewCache[accountEntry](client, ttl)}
}

func (v *AccountViews) Get(ctx context.Context, accountNumber string) (*models.Account, bool) {
	entry, ok := v.cache.Get(ctx, accountViewKeyPrefix+accountNumber)
	if !ok {
		return nil, false
	}
	account := entry.Account
	account.UserID = entry.UserID
	return &account, true
}

func (v *AccountViews) Set(ctx context.Context, account *models.Account) {
	entry := &accountEntry{Account: *account, UserID: account.UserID}
	v.cache.Set(ctx, accountViewKeyPrefix+account.AccountNumber, entry)
}

func (v *AccountViews) Delete(ctx context.Context, accountNumber string) {
	v.cache.Delete(ctx, accountViewKeyPrefix+accountNumber)
}
