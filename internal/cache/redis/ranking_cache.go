package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// RankingCache implements domain.RankingCache. Each ranking size is stored
// as one JSON string.
//
// Key schema:
//
//	{prefix}ranking:top-sellers:{limit}
type RankingCache struct {
	client *Client
}

var _ domain.RankingCache = (*RankingCache)(nil)

// NewRankingCache creates a RankingCache backed by the given Client.
func NewRankingCache(c *Client) *RankingCache {
	return &RankingCache{client: c}
}

func (rc *RankingCache) topSellersKey(limit int) string {
	return rc.client.key("ranking", "top-sellers", strconv.Itoa(limit))
}

// GetTopSellers returns the cached ranking or domain.ErrNotFound.
func (rc *RankingCache) GetTopSellers(ctx context.Context, limit int) (domain.TopSellers, error) {
	data, err := rc.client.Underlying().Get(ctx, rc.topSellersKey(limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.TopSellers{}, domain.ErrNotFound
		}
		return domain.TopSellers{}, fmt.Errorf("redis: get top sellers %d: %w", limit, err)
	}

	var ts domain.TopSellers
	if err := json.Unmarshal(data, &ts); err != nil {
		return domain.TopSellers{}, fmt.Errorf("redis: unmarshal top sellers %d: %w", limit, err)
	}
	return ts, nil
}

// SetTopSellers stores a ranking for ttl. Degraded rankings are not cached.
func (rc *RankingCache) SetTopSellers(ctx context.Context, limit int, result domain.TopSellers, ttl time.Duration) error {
	if result.Degraded {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis: marshal top sellers %d: %w", limit, err)
	}
	if err := rc.client.Underlying().Set(ctx, rc.topSellersKey(limit), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set top sellers %d: %w", limit, err)
	}
	return nil
}
