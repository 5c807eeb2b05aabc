package domain

import (
	"context"
	"time"
)

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RankingCache holds recently computed seller rankings for callers that opt
// into serving slightly stale results. Get returns ErrNotFound on a miss.
type RankingCache interface {
	GetTopSellers(ctx context.Context, limit int) (TopSellers, error)
	SetTopSellers(ctx context.Context, limit int, result TopSellers, ttl time.Duration) error
}
