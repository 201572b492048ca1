// Package ratelimit spaces outgoing requests with one token bucket per
// access class.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"graviex/pkg/core"
)

// Bucket names used by the transport.
const (
	BucketPublic  = "public"
	BucketPrivate = "private"
)

// BucketFor returns the bucket that throttles requests of the given access class.
func BucketFor(access core.Access) string {
	if access == core.AccessPrivate {
		return BucketPrivate
	}
	return BucketPublic
}

// Limiter hands out request slots per named bucket. Buckets are created on
// first use and all share the limiter's rate.
type Limiter struct {
	mu      sync.RWMutex
	limit   rate.Limit
	burst   int
	buckets map[string]*rate.Limiter

	waits  atomic.Int64
	denied atomic.Int64
}

// New allows requests per period in every bucket, with a burst of requests.
func New(requests int, period time.Duration) *Limiter {
	return &Limiter{
		limit:   rate.Limit(float64(requests) / period.Seconds()),
		burst:   requests,
		buckets: make(map[string]*rate.Limiter),
	}
}

// FromConfig builds a limiter from an exchange's advertised limits.
func FromConfig(cfg core.RateLimitConfig) *Limiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the bucket has a free slot or ctx is done.
func (l *Limiter) Wait(ctx context.Context, bucket string) error {
	return l.WaitN(ctx, bucket, 1)
}

// WaitN blocks until n slots of the bucket are free or ctx is done. A weight
// above the burst is taken in burst-sized steps; n below one counts as one.
func (l *Limiter) WaitN(ctx context.Context, bucket string, n int) error {
	l.waits.Add(1)
	b := l.bucket(bucket)
	for n = max(n, 1); n > 0; {
		step := min(n, b.Burst())
		if err := b.WaitN(ctx, step); err != nil {
			l.denied.Add(1)
			return err
		}
		n -= step
	}
	return nil
}

// Allow takes a slot from the bucket if one is free right now.
func (l *Limiter) Allow(bucket string) bool {
	l.waits.Add(1)
	if !l.bucket(bucket).Allow() {
		l.denied.Add(1)
		return false
	}
	return true
}

// Reserve books the next slot of the bucket without blocking.
func (l *Limiter) Reserve(bucket string) *rate.Reservation {
	return l.bucket(bucket).Reserve()
}

// SetLimit changes the rate of every existing and future bucket.
func (l *Limiter) SetLimit(requests int, period time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limit = rate.Limit(float64(requests) / period.Seconds())
	l.burst = requests
	for _, b := range l.buckets {
		b.SetLimit(l.limit)
		b.SetBurst(l.burst)
	}
}

func (l *Limiter) bucket(name string) *rate.Limiter {
	l.mu.RLock()
	b, ok := l.buckets[name]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[name]; ok {
		return b
	}
	b = rate.NewLimiter(l.limit, l.burst)
	l.buckets[name] = b
	return b
}

// Stats is a point-in-time view of limiter usage.
type Stats struct {
	Requests int64
	Denied   int64
	Buckets  int
}

func (l *Limiter) Stats() Stats {
	l.mu.RLock()
	n := len(l.buckets)
	l.mu.RUnlock()
	return Stats{
		Requests: l.waits.Load(),
		Denied:   l.denied.Load(),
		Buckets:  n,
	}
}
