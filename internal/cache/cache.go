// Package cache holds the redis-backed availability cache. It serves the
// preview path only; booking validation always reads fresh occupancy.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"turnero/internal/metrics"
	"turnero/internal/models"
)

// AvailabilityCache caches generated slot lists per date and duration.
// A nil *AvailabilityCache is a no-op, so callers need no enabled checks.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a cache over the given client. Returns nil when rdb is nil
// or ttl is non-positive (caching disabled).
func New(rdb *redis.Client, ttl time.Duration) *AvailabilityCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &AvailabilityCache{rdb: rdb, ttl: ttl}
}

func slotKey(date time.Time, durationMinutes int) string {
	return fmt.Sprintf("turnero:slots:%s:%d", date.Format("2006-01-02"), durationMinutes)
}

func dateKeyPattern(date time.Time) string {
	return fmt.Sprintf("turnero:slots:%s:*", date.Format("2006-01-02"))
}

// GetSlots returns a cached slot list, or (nil, false).
func (c *AvailabilityCache) GetSlots(ctx context.Context, date time.Time, durationMinutes int) ([]models.Slot, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, slotKey(date, durationMinutes)).Bytes()
	if err != nil {
		metrics.IncCacheLookup("miss")
		return nil, false
	}
	var slots []models.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		metrics.IncCacheLookup("miss")
		return nil, false
	}
	metrics.IncCacheLookup("hit")
	return slots, true
}

// SetSlots stores a slot list with the configured TTL. Best effort.
func (c *AvailabilityCache) SetSlots(ctx context.Context, date time.Time, durationMinutes int, slots []models.Slot) {
	if c == nil {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, slotKey(date, durationMinutes), data, c.ttl).Err()
}

// InvalidateDate drops all cached slot lists for a date. Called after any
// booking mutation touching that date.
func (c *AvailabilityCache) InvalidateDate(ctx context.Context, date time.Time) {
	if c == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, dateKeyPattern(date), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = c.rdb.Del(ctx, keys...).Err()
	}
}
