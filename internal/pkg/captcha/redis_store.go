package captcha

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "captcha:"

// RedisStore keeps captcha answers in Redis with a TTL so every server
// instance sees the same challenges.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new RedisStore
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Set stores answer under id for ttl
func (r *RedisStore) Set(ctx context.Context, id, answer string, ttl time.Duration) error {
	return r.client.Set(ctx, redisKeyPrefix+id, answer, ttl).Err()
}

// Get returns the answer for id, or ErrNotFound once it expired
func (r *RedisStore) Get(ctx context.Context, id string) (string, error) {
	answer, err := r.client.Get(ctx, redisKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}

// Delete removes id
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKeyPrefix+id).Err()
}
