package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"freelancehub/internal/billing"
	"freelancehub/pkg/metrics"
)

// StatsCache keeps computed project stats in Redis. Every path fails
// open: a Redis outage degrades to recomputing, never to an error.
type StatsCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *StatsCache {
	return &StatsCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func statsKey(projectID int) string {
	return fmt.Sprintf("project:%d:stats", projectID)
}

// Get returns cached stats, or nil on a miss or Redis failure.
func (c *StatsCache) Get(ctx context.Context, projectID int) *billing.Stats {
	data, err := c.rdb.Get(ctx, statsKey(projectID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Stats cache read failed",
				zap.Int("project_id", projectID),
				zap.Error(err),
			)
		}
		metrics.IncrementStatsCache("miss")
		return nil
	}

	var stats billing.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.logger.Warn("Stats cache entry corrupted, dropping",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		c.rdb.Del(ctx, statsKey(projectID))
		metrics.IncrementStatsCache("miss")
		return nil
	}

	metrics.IncrementStatsCache("hit")
	return &stats
}

// Set stores stats with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, projectID int, stats *billing.Stats) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, statsKey(projectID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Stats cache write failed",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
	}
}

// Invalidate drops the cached stats after any write that changes the
// project's intervals or payments.
func (c *StatsCache) Invalidate(ctx context.Context, projectID int) {
	if err := c.rdb.Del(ctx, statsKey(projectID)).Err(); err != nil {
		c.logger.Warn("Stats cache invalidation failed",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
	}
}
