package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"kairo/kairo-api/domain"
)

// RedisReserver guards concurrent sign-ups for the same email across
// instances. A reservation lives until released or its TTL passes.
type RedisReserver struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReserver creates a reserver using the provided Redis client and TTL.
func NewRedisReserver(client *redis.Client, ttl time.Duration) *RedisReserver {
	return &RedisReserver{client: client, ttl: ttl}
}

func (r *RedisReserver) key(email string) string {
	return "register:" + domain.NormalizeEmail(email)
}

// Reserve claims email. It returns false when another request holds it.
func (r *RedisReserver) Reserve(ctx context.Context, email string) (bool, error) {
	return r.client.SetNX(ctx, r.key(email), 1, r.ttl).Result()
}

// Release drops a reservation taken by Reserve.
func (r *RedisReserver) Release(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}
