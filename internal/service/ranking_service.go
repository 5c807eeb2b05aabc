package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

// Ranker computes a fresh ranking.
type Ranker interface {
	TopSellers(ctx context.Context, limit int) (domain.TopSellers, error)
}

// CachedRanking serves rankings from a domain.RankingCache and recomputes on
// a miss. Only callers that accept results up to ttl old should use it; the
// reconciliation engine itself never caches.
type CachedRanking struct {
	ranker Ranker
	cache  domain.RankingCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRanking wraps ranker with cache.
func NewCachedRanking(ranker Ranker, cache domain.RankingCache, ttl time.Duration, logger *slog.Logger) *CachedRanking {
	return &CachedRanking{ranker: ranker, cache: cache, ttl: ttl, logger: logger}
}

// TopSellers returns a cached ranking when one exists. Cache errors are
// logged and fall through to a fresh computation.
func (c *CachedRanking) TopSellers(ctx context.Context, limit int) (domain.TopSellers, error) {
	cached, err := c.cache.GetTopSellers(ctx, limit)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		c.logger.WarnContext(ctx, "ranking: cache get failed", slog.String("error", err.Error()))
	}

	fresh, err := c.ranker.TopSellers(ctx, limit)
	if err != nil {
		return domain.TopSellers{}, err
	}

	if err := c.cache.SetTopSellers(ctx, limit, fresh, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "ranking: cache set failed", slog.String("error", err.Error()))
	}
	return fresh, nil
}
