package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graviex/pkg/core"
)

func TestBucketFor(t *testing.T) {
	assert.Equal(t, BucketPublic, BucketFor(core.AccessPublic))
	assert.Equal(t, BucketPrivate, BucketFor(core.AccessPrivate))
}

func TestLimiter_Allow(t *testing.T) {
	limiter := New(3, time.Second)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(BucketPublic), "request %d should be allowed", i+1)
	}
	assert.False(t, limiter.Allow(BucketPublic), "request 4 should be blocked")
}

func TestLimiter_BucketsAreIndependent(t *testing.T) {
	limiter := New(1, time.Minute)

	assert.True(t, limiter.Allow(BucketPublic))
	assert.False(t, limiter.Allow(BucketPublic))
	assert.True(t, limiter.Allow(BucketPrivate), "private bucket has its own slot")

	stats := limiter.Stats()
	assert.Equal(t, 2, stats.Buckets)
	assert.Equal(t, int64(3), stats.Requests)
	assert.Equal(t, int64(1), stats.Denied)
}

func TestLimiter_WaitSpacesRequests(t *testing.T) {
	limiter := New(1, 50*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(ctx, BucketPrivate))
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestLimiter_WaitNCountsWeight(t *testing.T) {
	limiter := New(1, 50*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, limiter.WaitN(ctx, BucketPublic, 3))
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond, "weight above the burst is paced")

	require.NoError(t, limiter.WaitN(ctx, BucketPrivate, 0))
	assert.Equal(t, int64(2), limiter.Stats().Requests)
}

func TestLimiter_WaitContextCancellation(t *testing.T) {
	limiter := New(1, time.Second)

	require.NoError(t, limiter.Wait(context.Background(), BucketPublic))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx, BucketPublic))
	assert.Equal(t, int64(1), limiter.Stats().Denied)
}

func TestLimiter_FromConfig(t *testing.T) {
	limiter := FromConfig(core.RateLimitConfig{RequestsPerSecond: 1000.0 / 300, Burst: 0})

	assert.True(t, limiter.Allow(BucketPublic))
	assert.False(t, limiter.Allow(BucketPublic), "burst is clamped to one")

	r := limiter.Reserve(BucketPublic)
	require.True(t, r.OK())
	assert.InDelta(t, 300*time.Millisecond, r.Delay(), float64(50*time.Millisecond))
	r.Cancel()
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := New(100, time.Minute)

	var wg sync.WaitGroup
	results := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- limiter.Allow(BucketPublic)
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	assert.Equal(t, 100, allowed)
}

func TestLimiter_SetLimit(t *testing.T) {
	limiter := New(1, time.Minute)

	assert.True(t, limiter.Allow(BucketPublic))
	assert.False(t, limiter.Allow(BucketPublic))

	limiter.SetLimit(1000, time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, limiter.Allow(BucketPublic), "should allow after limit increase")
}
