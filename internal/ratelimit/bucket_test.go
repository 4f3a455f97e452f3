package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestBucket wires a bucket whose sleeps advance the fake clock instead
// of blocking.
func newTestBucket(t *testing.T, cfg Config) (*Bucket, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	b := New(cfg,
		WithClock(clock),
		WithSleep(func(_ context.Context, d time.Duration) bool {
			clock.Advance(d)
			return true
		}),
	)
	return b, clock
}

func TestBucketStartsFull(t *testing.T) {
	b, _ := newTestBucket(t, Config{Rate: 5, Capacity: 10})
	assert.Equal(t, 10.0, b.Tokens())
	assert.Equal(t, 10.0, b.Capacity())
}

func TestBucketCapacityDefaultsToRate(t *testing.T) {
	b, _ := newTestBucket(t, Config{Rate: 7})
	assert.Equal(t, 7.0, b.Capacity())
}

func TestTryAcquireDrainsThenFails(t *testing.T) {
	b, _ := newTestBucket(t, Config{Rate: 1, Capacity: 2})

	assert.True(t, b.TryAcquire(1))
	assert.True(t, b.TryAcquire(1))
	assert.False(t, b.TryAcquire(1))
	assert.GreaterOrEqual(t, b.Tokens(), 0.0)
}

func TestRefillIsCappedAtCapacity(t *testing.T) {
	b, clock := newTestBucket(t, Config{Rate: 10, Capacity: 3})

	require.True(t, b.TryAcquire(3))
	clock.Advance(time.Hour)
	assert.Equal(t, 3.0, b.Tokens())
}

func TestTokensNeverNegativeNorOverCapacity(t *testing.T) {
	b, clock := newTestBucket(t, Config{Rate: 4, Capacity: 4})

	steps := []struct {
		advance time.Duration
		cost    float64
	}{
		{0, 1}, {50 * time.Millisecond, 1}, {0, 1}, {0, 1},
		{250 * time.Millisecond, 2}, {10 * time.Second, 4}, {0, 1},
	}
	for _, step := range steps {
		clock.Advance(step.advance)
		acquired := b.TryAcquire(step.cost)
		tokens := b.Tokens()
		assert.GreaterOrEqual(t, tokens, 0.0)
		assert.LessOrEqual(t, tokens, b.Capacity())
		_ = acquired
	}
}

func TestBlockingAcquireWaitsForDeficit(t *testing.T) {
	b, clock := newTestBucket(t, Config{Rate: 2, Capacity: 1})

	require.True(t, b.Acquire(context.Background(), 1))

	before := clock.Now()
	require.True(t, b.Acquire(context.Background(), 1))
	// Deficit of one token at 2/s needs a 500ms wait.
	assert.Equal(t, 500*time.Millisecond, clock.Now().Sub(before))
}

func TestAcquireTimeoutRefusesLongWait(t *testing.T) {
	b, _ := newTestBucket(t, Config{Rate: 1, Capacity: 1})

	require.True(t, b.Acquire(context.Background(), 1))
	// One token back takes 1s; a 100ms budget must fail without sleeping.
	assert.False(t, b.AcquireTimeout(context.Background(), 1, 100*time.Millisecond))
}

func TestAcquireTimeoutWithinBudget(t *testing.T) {
	b, _ := newTestBucket(t, Config{Rate: 10, Capacity: 1})

	require.True(t, b.Acquire(context.Background(), 1))
	assert.True(t, b.AcquireTimeout(context.Background(), 1, time.Second))
}

func TestAcquireCanceledContext(t *testing.T) {
	clock := newFakeClock()
	b := New(Config{Rate: 1, Capacity: 1}, WithClock(clock))

	require.True(t, b.TryAcquire(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, b.Acquire(ctx, 1))
}

func TestLongRunRateNeverExceedsRefillRate(t *testing.T) {
	b, clock := newTestBucket(t, Config{Rate: 5, Capacity: 5})

	start := clock.Now()
	acquired := 0
	for range 200 {
		if b.Acquire(context.Background(), 1) {
			acquired++
		}
	}
	elapsed := clock.Now().Sub(start).Seconds()
	require.Positive(t, elapsed)

	// The initial burst holds capacity tokens; everything past it must be
	// paid for at the refill rate.
	rate := float64(acquired-int(b.Capacity())) / elapsed
	assert.LessOrEqual(t, rate, 5.0*1.01)
}

func TestConcurrentAcquiresStayWithinBudget(t *testing.T) {
	b := New(Config{Rate: 1000, Capacity: 50})

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.TryAcquire(1) {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, acquired, 51) // capacity plus at most one refilled token
	assert.GreaterOrEqual(t, b.Tokens(), 0.0)
}

func TestSharedFirstInitWins(t *testing.T) {
	resetShared()
	t.Cleanup(resetShared)

	first, initialized := Shared(SharedConfig{NominalRate: 10, SafetyFactor: 0.5})
	require.True(t, initialized)
	assert.Equal(t, 5.0, first.Capacity())

	second, initialized := Shared(SharedConfig{NominalRate: 100, SafetyFactor: 1})
	assert.False(t, initialized)
	assert.Same(t, first, second)
}
