package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	clock  Clock
}

// NewRedisStore creates a Redis-backed token store scoped to the
// given visitor namespace. The validity window is applied both as the
// persisted expiry timestamp and as the Redis key TTL so abandoned
// sessions evict themselves.
func NewRedisStore(client *redis.Client, namespace string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "adminsession:" + namespace + ":",
		ttl:    ttl,
		clock:  SystemClock,
	}
}

// WithClock replaces the wall clock. Intended for tests.
func (r *RedisStore) WithClock(c Clock) *RedisStore {
	r.clock = c
	return r
}

func (r *RedisStore) key(name string) string {
	return r.prefix + name
}

func (r *RedisStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("tokenstore: missing token")
	}

	expiresAt := r.clock.Now().Add(r.ttl)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(KeyToken), token, r.ttl)
	pipe.Set(ctx, r.key(KeyTokenExpiry),
		strconv.FormatInt(expiresAt.UnixMilli(), 10), r.ttl)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokenstore: failed to persist token: %w", err)
	}
	return nil
}

func (r *RedisStore) Token(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, r.key(KeyToken)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisStore) IsExpired(ctx context.Context) (bool, error) {
	val, err := r.client.Get(ctx, r.key(KeyTokenExpiry)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return true, err
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// corrupted expiry reads as expired, never as valid
		return true, nil
	}

	return !r.clock.Now().Before(time.UnixMilli(millis)), nil
}

func (r *RedisStore) SetUser(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("tokenstore: failed to marshal user: %w", err)
	}
	return r.client.Set(ctx, r.key(KeyUserData), data, r.ttl).Err()
}

func (r *RedisStore) GetUser(ctx context.Context) (*User, error) {
	val, err := r.client.Get(ctx, r.key(KeyUserData)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeUser([]byte(val)), nil
}

func (r *RedisStore) ClearAll(ctx context.Context) error {
	return r.client.Del(ctx,
		r.key(KeyToken),
		r.key(KeyTokenExpiry),
		r.key(KeyUserData),
	).Err()
}
