package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"notification-dispatcher/internal/models"

	"github.com/redis/go-redis/v9"
)

// absentMarker is cached when no template exists for a key.
const absentMarker = "null"

// RedisCache stores selections as JSON. Absence is stored as the JSON literal null.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.Template, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if val == absentMarker {
		return nil, true, nil
	}

	var tmpl models.Template
	if err := json.Unmarshal([]byte(val), &tmpl); err != nil {
		return nil, false, fmt.Errorf("decode cached template %s: %w", key, err)
	}
	return &tmpl, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, tmpl *models.Template, ttl time.Duration) error {
	payload := []byte(absentMarker)
	if tmpl != nil {
		data, err := json.Marshal(tmpl)
		if err != nil {
			return err
		}
		payload = data
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
