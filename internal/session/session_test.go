package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	redisClient
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	value, ok := f.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(value)
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	for _, key := range keys {
		delete(f.values, key)
	}
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "ping")
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func newBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	store, err := OpenBadger("", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStores_Lifecycle(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"redis":  func(t *testing.T) Store { return newRedisStore(newFakeRedis(), time.Hour) },
		"badger": func(t *testing.T) Store { return newBadgerStore(t) },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			userID := files.NewID()

			token, err := store.Create(ctx, userID)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			resolved, err := store.Resolve(ctx, token)
			require.NoError(t, err)
			assert.Equal(t, userID.Hex(), resolved)

			unknown, err := store.Resolve(ctx, "does-not-exist")
			require.NoError(t, err)
			assert.Empty(t, unknown)

			require.NoError(t, store.Delete(ctx, token))

			resolved, err = store.Resolve(ctx, token)
			require.NoError(t, err)
			assert.Empty(t, resolved)

			assert.NoError(t, store.Ping(ctx))
		})
	}
}

func TestRedisStore_KeysAndTTL(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	store := newRedisStore(client, 0)

	token, err := store.Create(ctx, files.NewID())
	require.NoError(t, err)

	require.Len(t, client.values, 1)
	for k := range client.values {
		assert.True(t, strings.HasPrefix(k, "auth_"))
		assert.Equal(t, "auth_"+token, k)
		assert.Equal(t, DefaultTTL, client.ttls[k])
	}
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	store := newRedisStore(client, time.Hour)

	_, err := store.Resolve(ctx, "token")
	assert.ErrorIs(t, err, files.ErrUpstream)

	_, err = store.Create(ctx, files.NewID())
	assert.ErrorIs(t, err, files.ErrUpstream)

	assert.Error(t, store.Ping(ctx))
	assert.NoError(t, store.Close())
}

func TestBadgerStore_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	store := newBadgerStore(t)

	require.NoError(t, store.put("stale", files.NewID().Hex(), -time.Minute))

	resolved, err := store.Resolve(ctx, "stale")
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestBadgerStore_PingAfterClose(t *testing.T) {
	store, err := OpenBadger("", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Ping(context.Background()), files.ErrUpstream)
}
