package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"Athena/internal/config"
)

// NewClient creates a Redis client and verifies the connection with a ping.
// The client is safe for concurrent use and is shared by the answer cache
// and the rate limiter.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// HealthCheck pings Redis.
func HealthCheck(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
