package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"kairo/kairo-api/domain"
)

// Cache wraps a Users store with Redis-backed caching of lookups.
// Writes go to the base store first and then evict the cached copies.
type Cache struct {
	base  Users
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base Users, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

// cachedUser keeps the password hash that domain.User hides from JSON.
type cachedUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (c *Cache) Create(ctx context.Context, u domain.User) (domain.User, error) {
	created, err := c.base.Create(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	c.evict(ctx, emailCacheKey(created.Email))
	return created, nil
}

func (c *Cache) Get(ctx context.Context, id string) (domain.User, error) {
	if u, ok := c.load(ctx, userCacheKey(id)); ok {
		return u, nil
	}
	u, err := c.base.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	c.store(ctx, u)
	return u, nil
}

func (c *Cache) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if u, ok := c.load(ctx, emailCacheKey(email)); ok {
		return u, nil
	}
	u, err := c.base.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	c.store(ctx, u)
	return u, nil
}

// List always reads through; the listing is not cached.
func (c *Cache) List(ctx context.Context) ([]domain.User, error) {
	return c.base.List(ctx)
}

func (c *Cache) Update(ctx context.Context, u domain.User) (domain.User, error) {
	prev, prevErr := c.base.Get(ctx, u.ID)
	updated, err := c.base.Update(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	keys := []string{userCacheKey(updated.ID), emailCacheKey(updated.Email)}
	if prevErr == nil {
		keys = append(keys, emailCacheKey(prev.Email))
	}
	c.evict(ctx, keys...)
	return updated, nil
}

func (c *Cache) Delete(ctx context.Context, id string) error {
	prev, prevErr := c.base.Get(ctx, id)
	if err := c.base.Delete(ctx, id); err != nil {
		return err
	}
	keys := []string{userCacheKey(id)}
	if prevErr == nil {
		keys = append(keys, emailCacheKey(prev.Email))
	}
	c.evict(ctx, keys...)
	return nil
}

func (c *Cache) load(ctx context.Context, key string) (domain.User, bool) {
	if c.redis == nil {
		return domain.User{}, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return domain.User{}, false
	}
	var cu cachedUser
	if err := sonic.Unmarshal(data, &cu); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return domain.User{}, false
	}
	return domain.User{
		ID:           cu.ID,
		Username:     cu.Username,
		Email:        cu.Email,
		PasswordHash: cu.PasswordHash,
		CreatedAt:    cu.CreatedAt,
		UpdatedAt:    cu.UpdatedAt,
	}, true
}

func (c *Cache) store(ctx context.Context, u domain.User) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(cachedUser{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
	if err != nil {
		return
	}
	_, _ = c.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, userCacheKey(u.ID), data, c.ttl)
		pipe.Set(ctx, emailCacheKey(u.Email), data, c.ttl)
		return nil
	})
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil || len(keys) == 0 {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

func userCacheKey(id string) string {
	return "user:" + id
}

func emailCacheKey(email string) string {
	return "user-email:" + domain.NormalizeEmail(email)
}
