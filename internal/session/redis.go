package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pavel-fokin/files-manager/internal/files"
	"github.com/redis/go-redis/v9"
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStore keeps sessions in Redis under auth_<token>
type RedisStore struct {
	client redisClient
	closer func() error
	ttl    time.Duration
}

// NewRedisStore connects to the Redis server at addr
func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	store := newRedisStore(client, ttl)
	store.closer = client.Close
	return store
}

func newRedisStore(client redisClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Resolve returns the user ID bound to token, or "" if the key is absent
func (s *RedisStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to get session: %w", files.ErrUpstream, err)
	}
	return userID, nil
}

// Create stores a fresh token for userID
func (s *RedisStore) Create(ctx context.Context, userID files.ID) (string, error) {
	token := newToken()
	if err := s.client.Set(ctx, key(token), userID.Hex(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: failed to set session: %w", files.ErrUpstream, err)
	}
	return token, nil
}

// Delete removes token
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("%w: failed to delete session: %w", files.ErrUpstream, err)
	}
	return nil
}

// Ping checks the connection to Redis
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client
func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
