package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/exam-console-api/pkg/config"
)

// Gateway cache entries live under namespaced keys so an invalidation can
// sweep a whole namespace with one pattern delete.
const occupancyPrefix = "occupancy:"

// OccupancyPattern matches every cached occupancy entry.
const OccupancyPattern = occupancyPrefix + "*"

// OccupancyKey returns the cache key for an occupancy fetch scoped to a room
// location; the empty location is the unfiltered view.
func OccupancyKey(location string) string {
	if location == "" {
		return occupancyPrefix + "all"
	}
	return occupancyPrefix + location
}

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "exam-console-gateway",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
