// Package cache holds the Redis-backed cache for per-listing review
// statistics. Stats are recomputed from the database on every cache miss,
// so the cache is purely an optimization and a nil client disables it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/domain"
)

const defaultStatsTTL = 5 * time.Minute

// StatsCache caches listing review statistics in Redis.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a StatsCache. client may be nil, in which case all
// operations are no-ops. A non-positive ttl falls back to the default.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(listingID int64) string {
	return fmt.Sprintf("listing:%d:stats", listingID)
}

// Get returns the cached statistics for a listing, or (nil, nil) on a miss.
// Cache errors are reported but callers treat them like misses.
func (c *StatsCache) Get(ctx context.Context, listingID int64) (*domain.ReviewStatistics, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, statsKey(listingID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get stats cache: %w", err)
	}

	var stats domain.ReviewStatistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshal cached stats: %w", err)
	}
	return &stats, nil
}

// Set stores the statistics for a listing with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, listingID int64, stats *domain.ReviewStatistics) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(listingID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set stats cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached statistics for a listing. Called after any
// write that changes the published review set.
func (c *StatsCache) Invalidate(ctx context.Context, listingID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, statsKey(listingID)).Err(); err != nil {
		return fmt.Errorf("invalidate stats cache: %w", err)
	}
	return nil
}
