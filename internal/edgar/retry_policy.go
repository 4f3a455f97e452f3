package edgar

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"net"
	"time"
)

// RetryPolicyConfig controls the transient-failure retry behavior.
type RetryPolicyConfig struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	RetryStatuses []int
}

// RetryPolicy decides which responses are transient and how long to back
// off between attempts.
type RetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	statuses   map[int]struct{}
}

// NewRetryPolicy builds a policy; zero config fields get sane defaults.
func NewRetryPolicy(cfg RetryPolicyConfig) *RetryPolicy {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if len(cfg.RetryStatuses) == 0 {
		cfg.RetryStatuses = []int{429, 500, 502, 503, 504}
	}
	statuses := make(map[int]struct{}, len(cfg.RetryStatuses))
	for _, code := range cfg.RetryStatuses {
		statuses[code] = struct{}{}
	}
	return &RetryPolicy{
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		statuses:   statuses,
	}
}

// MaxRetries returns the retry budget per request.
func (p *RetryPolicy) MaxRetries() int {
	return p.maxRetries
}

// ShouldRetry reports whether one more attempt is warranted for the given
// status code or transport error.
func (p *RetryPolicy) ShouldRetry(status int, err error, attempt int) bool {
	if attempt >= p.maxRetries {
		return false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			return netErr.Timeout()
		}
		return true
	}
	_, retryable := p.statuses[status]
	return retryable
}

// Backoff returns the jittered wait duration before attempt n+1.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
