// Package cache implements Redis-backed caching adapters.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"mailagent/core/domain"
	"mailagent/pkg/apperr"
)

const digestKeyPrefix = "digest:latest:"

// DigestCacheAdapter implements out.DigestCache on Redis. The aggregation
// path only ever writes through it; reads serve dashboard-style consumers
// that can tolerate a slightly stale view.
type DigestCacheAdapter struct {
	client *redis.Client
}

func NewDigestCacheAdapter(client *redis.Client) *DigestCacheAdapter {
	return &DigestCacheAdapter{client: client}
}

func digestKey(date string) string {
	return digestKeyPrefix + date
}

func (a *DigestCacheAdapter) SetLatest(ctx context.Context, summary *domain.DailySummary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}
	return a.client.Set(ctx, digestKey(summary.Date), data, ttl).Err()
}

func (a *DigestCacheAdapter) GetLatest(ctx context.Context, date string) (*domain.DailySummary, error) {
	data, err := a.client.Get(ctx, digestKey(date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("cached digest")
		}
		return nil, apperr.DatabaseError("read cached digest", err)
	}

	var summary domain.DailySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal digest: %w", err)
	}
	return &summary, nil
}
