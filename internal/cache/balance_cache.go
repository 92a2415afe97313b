package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"withdrawal-service/internal/domain"
)

// keyValueClient is the slice of the Redis client the cache needs.
type keyValueClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// balanceCache is a Redis-backed read-through cache over a BalanceStore.
// Entries are plain decimal strings keyed by account ID. The cache is only
// used for the fast-path sufficiency check; the authoritative value is always
// the one the store's conditional decrement evaluates, so cache errors degrade
// to direct store reads instead of failing the request.
type balanceCache struct {
	client keyValueClient
	store  domain.BalanceStore
	ttl    time.Duration
	logger *slog.Logger
}

func NewBalanceCache(client *redis.Client, store domain.BalanceStore, ttl time.Duration, logger *slog.Logger) domain.BalanceCache {
	return &balanceCache{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func balanceKey(accountID int64) string {
	return fmt.Sprintf("balance:%d", accountID)
}

// Get returns the cached balance for accountID, falling back to the store and
// populating the cache on a miss.
func (c *balanceCache) Get(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	key := balanceKey(accountID)

	data, err := c.client.Get(ctx, key).Result()
	if err == nil {
		balance, parseErr := decimal.NewFromString(data)
		if parseErr == nil {
			return balance, nil
		}
		// Unparseable entry: drop it and fall through to the store.
		c.logger.Warn("Discarding corrupt cache entry", "key", key, "value", data)
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("Cache read failed, falling back to store", "key", key, "error", err)
	}

	balance, err := c.store.GetBalance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if setErr := c.client.Set(ctx, key, balance.String(), c.ttl).Err(); setErr != nil {
		c.logger.Warn("Cache write failed", "key", key, "error", setErr)
	}

	return balance, nil
}

// Invalidate removes the entry unconditionally. Callers must invoke it only
// after the store write is confirmed, never before, so the cache cannot be
// repopulated with a value that is about to change under it.
func (c *balanceCache) Invalidate(ctx context.Context, accountID int64) {
	key := balanceKey(accountID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Cache invalidation failed", "key", key, "error", err)
	}
}
