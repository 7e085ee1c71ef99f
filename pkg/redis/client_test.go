package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/campground-backend/pkg/config"
)

// memStore is a map-backed cmdable. TTLs are recorded, not enforced.
type memStore struct {
	values   map[string]string
	counters map[string]int64
	ttls     map[string]time.Duration
	expired  []string
}

func newMemStore() *memStore {
	return &memStore{
		values:   map[string]string{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
	}
}

func (m *memStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.values[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memStore) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := m.values[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (m *memStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, taken := m.values[key]; taken {
		return redis.NewBoolResult(false, nil)
	}
	m.Set(ctx, key, value, ttl)
	return redis.NewBoolResult(true, nil)
}

func (m *memStore) Incr(_ context.Context, key string) *redis.IntCmd {
	m.counters[key]++
	return redis.NewIntResult(m.counters[key], nil)
}

func (m *memStore) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.expired = append(m.expired, key)
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			n++
		}
		delete(m.values, key)
	}
	return redis.NewIntResult(n, nil)
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	client := &Client{store: store, now: func() time.Time { return now }}

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:10.0.0.1", 2, time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
		assert.EqualValues(t, i+1, count)
	}
	require.Len(t, store.expired, 1, "only the first hit in a window sets the ttl")
	assert.Equal(t, time.Second, store.ttls[store.expired[0]])

	now = now.Add(time.Second)
	allowed, count, err := client.FixedWindowAllow(ctx, "login:ip:10.0.0.1", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.EqualValues(t, 1, count)
	require.Len(t, store.expired, 2)
	assert.NotEqual(t, store.expired[0], store.expired[1], "each window gets its own bucket")
	assert.Contains(t, store.expired[1], client.RateLimitKey("login:ip:10.0.0.1")+":")

	_, _, err = client.FixedWindowAllow(ctx, "scope", 1, 0)
	assert.Error(t, err)
}

func TestValueOperations(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	client := &Client{store: store}
	key := client.AccessSessionKey("jti-1")

	require.NoError(t, client.Set(ctx, key, "user-1", 10*time.Minute))
	assert.Equal(t, 10*time.Minute, store.ttls[key])

	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got)

	won, err := client.SetNX(ctx, key, "user-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, won, "existing key must not be replaced")

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, redis.Nil)

	won, err = client.SetNX(ctx, key, "user-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestUnconnectedClient(t *testing.T) {
	ctx := context.Background()
	bare := &Client{}
	assert.Error(t, bare.Ping(ctx))
	_, err := bare.Get(ctx, "x")
	assert.ErrorIs(t, err, errNotInitialized)
	_, _, err = bare.FixedWindowAllow(ctx, "x", 1, time.Second)
	assert.ErrorIs(t, err, errNotInitialized)

	// owner scripts need a real scripter even when a store is present
	storeOnly := &Client{store: newMemStore()}
	_, err = storeOnly.DeleteIfValue(ctx, "cg:lock:x", "owner")
	assert.ErrorIs(t, err, errNotInitialized)
	_, err = storeOnly.ExpireIfValue(ctx, "cg:lock:x", "owner", time.Minute)
	assert.ErrorIs(t, err, errNotInitialized)
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err, "url or address is required")

	fromURL, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, fromURL.DB)
	assert.Equal(t, 7, fromURL.PoolSize)
	assert.Equal(t, time.Second, fromURL.DialTimeout)

	fromAddr, err := optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 4})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", fromAddr.Addr)
	assert.Equal(t, 4, fromAddr.DB)
	assert.Equal(t, "campground-backend", fromAddr.ClientName)
}

func TestKeys(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "cg:idempotency:scope:id", c.IdempotencyKey("scope", "id"))
	assert.Equal(t, "cg:idempotency:scope", c.IdempotencyKey("scope", " "), "blank parts are skipped")
	assert.Equal(t, "cg:rate_limit:scope", c.RateLimitKey("scope"))
	assert.Equal(t, "cg:session:access:abc", c.AccessSessionKey("abc"))
	assert.Equal(t, "cg:lock:cron-worker:prod", c.LockKey("cron-worker:prod"))
}
