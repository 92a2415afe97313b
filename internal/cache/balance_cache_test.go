package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"withdrawal-service/internal/domain"
	apperrors "withdrawal-service/internal/errors"
)

type setCall struct {
	key   string
	value string
	ttl   time.Duration
}

// fakeRedis keeps entries in a map; getErr simulates transport failure.
type fakeRedis struct {
	data     map[string]string
	getErr   error
	setErr   error
	setCalls []setCall
	delKeys  []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	str, _ := value.(string)
	f.data[key] = str
	f.setCalls = append(f.setCalls, setCall{key: key, value: str, ttl: expiration})
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
		f.delKeys = append(f.delKeys, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type fakeBalanceStore struct {
	balances map[int64]decimal.Decimal
	getCalls int
}

func (s *fakeBalanceStore) GetBalance(_ context.Context, accountID int64) (decimal.Decimal, error) {
	s.getCalls++
	balance, ok := s.balances[accountID]
	if !ok {
		return decimal.Zero, apperrors.ErrAccountNotFound
	}
	return balance, nil
}

func (s *fakeBalanceStore) DecrementBalance(context.Context, int64, decimal.Decimal) (int64, error) {
	return 0, nil
}

func (s *fakeBalanceStore) WithTransaction(_ context.Context, fn func(store domain.BalanceStore) error) error {
	return fn(s)
}

func newTestCache(client keyValueClient, store domain.BalanceStore) *balanceCache {
	return &balanceCache{
		client: client,
		store:  store,
		ttl:    time.Minute,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestGetMissPopulatesCache(t *testing.T) {
	client := newFakeRedis()
	store := &fakeBalanceStore{balances: map[int64]decimal.Decimal{1: mustDecimal(t, "100.00")}}
	c := newTestCache(client, store)

	balance, err := c.Get(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDecimal(t, "100.00")))
	assert.Equal(t, 1, store.getCalls)

	require.Len(t, client.setCalls, 1)
	assert.Equal(t, "balance:1", client.setCalls[0].key)
	assert.Equal(t, "100.00", client.setCalls[0].value)
	assert.Equal(t, time.Minute, client.setCalls[0].ttl)
}

func TestGetHitSkipsStore(t *testing.T) {
	client := newFakeRedis()
	client.data["balance:1"] = "25.50"
	store := &fakeBalanceStore{balances: map[int64]decimal.Decimal{1: mustDecimal(t, "100.00")}}
	c := newTestCache(client, store)

	balance, err := c.Get(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDecimal(t, "25.50")), "cached value wins over the store")
	assert.Zero(t, store.getCalls)
}

func TestGetFallsBackWhenRedisUnavailable(t *testing.T) {
	client := newFakeRedis()
	client.getErr = errors.New("connection refused")
	client.setErr = errors.New("connection refused")
	store := &fakeBalanceStore{balances: map[int64]decimal.Decimal{1: mustDecimal(t, "100.00")}}
	c := newTestCache(client, store)

	balance, err := c.Get(context.Background(), 1)

	require.NoError(t, err, "a cache outage must not fail the read")
	assert.True(t, balance.Equal(mustDecimal(t, "100.00")))
	assert.Equal(t, 1, store.getCalls)
}

func TestGetDiscardsCorruptEntry(t *testing.T) {
	client := newFakeRedis()
	client.data["balance:1"] = "not-a-number"
	store := &fakeBalanceStore{balances: map[int64]decimal.Decimal{1: mustDecimal(t, "100.00")}}
	c := newTestCache(client, store)

	balance, err := c.Get(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDecimal(t, "100.00")), "corrupt entry falls through to the store")
	assert.Contains(t, client.delKeys, "balance:1", "corrupt entry must be dropped")
	assert.Equal(t, 1, store.getCalls)
	assert.Equal(t, "100.00", client.data["balance:1"], "key is repopulated from the store")
}

func TestGetPropagatesStoreError(t *testing.T) {
	client := newFakeRedis()
	store := &fakeBalanceStore{balances: map[int64]decimal.Decimal{}}
	c := newTestCache(client, store)

	_, err := c.Get(context.Background(), 42)

	assert.Equal(t, apperrors.ErrAccountNotFound, err)
	assert.Empty(t, client.setCalls, "nothing may be cached for a failed read")
}

func TestInvalidateRemovesEntry(t *testing.T) {
	client := newFakeRedis()
	client.data["balance:1"] = "100.00"
	store := &fakeBalanceStore{balances: map[int64]decimal.Decimal{1: mustDecimal(t, "60.00")}}
	c := newTestCache(client, store)

	c.Invalidate(context.Background(), 1)

	assert.Equal(t, []string{"balance:1"}, client.delKeys)

	// Next read observes the new stored balance.
	balance, err := c.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDecimal(t, "60.00")))
}
