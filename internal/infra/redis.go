// README: Redis client initialization for search cache, search history and branch GEO index.
package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/config"
)

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
