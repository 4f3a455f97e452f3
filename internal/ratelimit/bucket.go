// Package ratelimit implements the token bucket that paces all outbound
// requests to the archive.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/finfeed/edgar-ingest/internal/telemetry"
)

// Clock returns the current time (injectable for tests).
type Clock interface {
	Now() time.Time
}

// Config holds token bucket parameters.
type Config struct {
	// Rate is the refill rate in tokens per second.
	Rate float64
	// Capacity is the maximum token count. Defaults to Rate when zero.
	Capacity float64
}

// Bucket is a continuous-refill token bucket. The refill-check-deduct
// sequence runs under a single mutex; waiting happens with the mutex
// released so concurrent callers are not blocked during a sleep.
type Bucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	last     time.Time

	clock  Clock
	sleep  func(ctx context.Context, d time.Duration) bool
	logger *zap.Logger
}

// Option customizes a Bucket.
type Option func(*Bucket)

// WithClock overrides the bucket's time source.
func WithClock(c Clock) Option {
	return func(b *Bucket) { b.clock = c }
}

// WithLogger attaches a logger for contract-violation reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bucket) { b.logger = logger }
}

// WithSleep overrides how the bucket waits (tests only).
func WithSleep(sleep func(ctx context.Context, d time.Duration) bool) Option {
	return func(b *Bucket) { b.sleep = sleep }
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// New creates a Bucket that starts full.
func New(cfg Config, opts ...Option) *Bucket {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = cfg.Rate
	}
	b := &Bucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     cfg.Rate,
		clock:    systemClock{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.last = b.clock.Now()
	if b.sleep == nil {
		b.sleep = timerSleep
	}
	return b
}

func timerSleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// refill adds elapsed*rate tokens capped at capacity. Callers hold b.mu.
func (b *Bucket) refill() {
	now := b.clock.Now()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.last = now
}

// TryAcquire deducts cost tokens without waiting. It reports whether the
// tokens were acquired.
func (b *Bucket) TryAcquire(cost float64) bool {
	return b.acquire(context.Background(), cost, false, 0)
}

// Acquire blocks until cost tokens are available or ctx ends. It reports
// whether the tokens were acquired.
func (b *Bucket) Acquire(ctx context.Context, cost float64) bool {
	return b.acquire(ctx, cost, true, 0)
}

// AcquireTimeout blocks up to timeout for cost tokens. A required wait
// longer than the remaining budget fails immediately rather than sleeping.
func (b *Bucket) AcquireTimeout(ctx context.Context, cost float64, timeout time.Duration) bool {
	return b.acquire(ctx, cost, true, timeout)
}

func (b *Bucket) acquire(ctx context.Context, cost float64, block bool, timeout time.Duration) bool {
	b.mu.Lock()
	b.refill()

	if b.tokens >= cost {
		b.tokens -= cost
		b.mu.Unlock()
		return true
	}
	if !block || b.rate <= 0 {
		b.mu.Unlock()
		return false
	}

	deficit := cost - b.tokens
	// Round up so the sleep never undershoots the deficit by a nanosecond.
	wait := time.Duration(math.Ceil(deficit / b.rate * float64(time.Second)))
	if timeout > 0 && wait > timeout {
		b.mu.Unlock()
		return false
	}
	b.mu.Unlock()

	start := b.clock.Now()
	if !b.sleep(ctx, wait) {
		return false
	}
	telemetry.ObserveRateLimitWait(b.clock.Now().Sub(start))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	if b.tokens+tokenEpsilon < cost {
		// Refill is monotonic, so a post-wait shortfall means the
		// elapsed-time math was violated, not that the caller raced.
		b.logger.Error("token bucket shortfall after computed wait",
			zap.Float64("tokens", b.tokens),
			zap.Float64("cost", cost),
			zap.Duration("waited", wait),
		)
		return false
	}
	b.tokens = math.Max(0, b.tokens-cost)
	return true
}

// tokenEpsilon absorbs float rounding when a wait lands exactly on the
// deficit boundary.
const tokenEpsilon = 1e-9

// Tokens returns the current token count after a refill.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// Capacity returns the bucket capacity.
func (b *Bucket) Capacity() float64 {
	return b.capacity
}
