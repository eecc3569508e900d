package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLocker реализует domain.Locker через Redis SetNX.
type RedisLocker struct {
	client *redis.Client
}

// NewRedis создаёт локер.
func NewRedis(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Once выполняет функцию, если ключ ещё не занят. При ошибке fn ключ
// освобождается, чтобы повторный запуск был возможен.
func (c *RedisLocker) Once(key string, ttl time.Duration, fn func() error) error {
	ctx := context.Background()
	ok, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return err
	}
	return nil
}
