package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/merchantdesk/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromRedis(rdb, "test:"), mr
}

func TestRateLimiter_Allow(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "api", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, err := rl.Allow(ctx, "api", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = rl.Allow(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c)

	require.NoError(t, rl.Wait(context.Background(), "k", 1, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx, "k", 1, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_WaitSleepsUntilSlotFrees(t *testing.T) {
	c, _ := newTestClient(t)
	rl := NewRateLimiter(c)
	ctx := context.Background()

	ok, _, err := rl.take(ctx, "np", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, retryIn, err := rl.take(ctx, "np", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, retryIn, 59*time.Second)
	assert.LessOrEqual(t, retryIn, time.Minute)

	start := time.Now()
	require.NoError(t, rl.Wait(ctx, "short", 1, 80*time.Millisecond))
	require.NoError(t, rl.Wait(ctx, "short", 1, 80*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLockManager(t *testing.T) {
	c, mr := newTestClient(t)
	lm := NewLockManager(c)
	ctx := context.Background()

	release, err := lm.Acquire(ctx, "report", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:report"))

	_, err = lm.Acquire(ctx, "report", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)

	release()
	release()
	assert.False(t, mr.Exists("test:lock:report"))

	release2, err := lm.Acquire(ctx, "report", time.Minute)
	require.NoError(t, err)
	release2()
}

func TestLockManager_ReleaseKeepsForeignLock(t *testing.T) {
	c, mr := newTestClient(t)
	lm := NewLockManager(c)

	release, err := lm.Acquire(context.Background(), "report", time.Minute)
	require.NoError(t, err)

	// lock expired and was taken by another holder
	require.NoError(t, mr.Set("test:lock:report", "someone-else"))
	release()

	got, err := mr.Get("test:lock:report")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRankingCache(t *testing.T) {
	c, mr := newTestClient(t)
	rc := NewRankingCache(c)
	ctx := context.Background()

	_, err := rc.GetTopSellers(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	want := domain.TopSellers{
		Sellers:           []domain.TopSellerEntry{{ID: "s1", Name: "Alpha", TransactionCount: 3, PercentageActivity: 75}},
		TotalTransactions: 4,
		GeneratedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, rc.SetTopSellers(ctx, 5, want, time.Minute))

	got, err := rc.GetTopSellers(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, want.Sellers, got.Sellers)
	assert.Equal(t, want.TotalTransactions, got.TotalTransactions)
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))

	mr.FastForward(2 * time.Minute)
	_, err = rc.GetTopSellers(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRankingCache_SkipsDegraded(t *testing.T) {
	c, _ := newTestClient(t)
	rc := NewRankingCache(c)
	ctx := context.Background()

	require.NoError(t, rc.SetTopSellers(ctx, 5, domain.TopSellers{Degraded: true}, time.Minute))
	_, err := rc.GetTopSellers(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
