// Package cache holds read-through caches in front of slower directories.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// DefaultBranchTTL bounds how long a moved branch keeps its old coordinates.
const DefaultBranchTTL = 10 * time.Minute

// redisClient is the subset of go-redis the cache needs.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type cachedLocation struct {
	Known bool    `json:"known"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// BranchLocations caches ports.BranchDirectory lookups in Redis. Redis
// failures fall through to the wrapped directory.
type BranchLocations struct {
	next   ports.BranchDirectory
	client redisClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewBranchLocations(next ports.BranchDirectory, client redisClient, ttl time.Duration, logger *slog.Logger) *BranchLocations {
	if ttl <= 0 {
		ttl = DefaultBranchTTL
	}
	return &BranchLocations{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "branch_location_cache"),
	}
}

func (c *BranchLocations) Location(ctx context.Context, branchID kernel.UUID) (*kernel.Location, error) {
	key := cacheKey(branchID)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if loc, ok := c.decode(ctx, key, raw); ok {
			return loc, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "branch cache read failed", "key", key, "error", err)
	}

	loc, err := c.next.Location(ctx, branchID)
	if err != nil {
		return nil, err
	}

	entry := cachedLocation{}
	if loc != nil {
		entry = cachedLocation{Known: true, Lat: loc.Lat(), Lon: loc.Lon()}
	}
	data, _ := json.Marshal(entry)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "branch cache write failed", "key", key, "error", err)
	}

	return loc, nil
}

func (c *BranchLocations) decode(ctx context.Context, key, raw string) (*kernel.Location, bool) {
	var entry cachedLocation
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.WarnContext(ctx, "branch cache entry is corrupt", "key", key, "error", err)
		return nil, false
	}
	if !entry.Known {
		return nil, true
	}
	loc, err := kernel.NewLocation(entry.Lat, entry.Lon)
	if err != nil {
		return nil, false
	}
	return &loc, true
}

func cacheKey(branchID kernel.UUID) string {
	return fmt.Sprintf("branch:%s:location", branchID)
}
