// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"notification-dispatcher/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient backs the template cache.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis connects lazily. Timeouts are short: a slow cache read is treated as a miss
// and falls through to the template store.
func NewRedis(cfg config.RedisConfig) *RedisClient {
	return &RedisClient{Client: redis.NewClient(redisOptions(cfg))}
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   1,
	}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
