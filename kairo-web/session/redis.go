package session

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the token under a single Redis key so several client
// processes on one kiosk share the same login.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis returns a store using key (Key when empty) on client.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = Key
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Token(ctx context.Context) (string, bool, error) {
	tok, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return tok, tok != "", nil
}

func (r *Redis) SetToken(ctx context.Context, token string) error {
	return r.client.Set(ctx, r.key, token, 0).Err()
}

func (r *Redis) ClearToken(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
