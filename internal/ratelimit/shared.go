package ratelimit

import "sync"

// SharedConfig describes the archive's published limit and the headroom
// factor applied below it.
type SharedConfig struct {
	// NominalRate is the archive's published requests-per-second limit.
	NominalRate float64
	// SafetyFactor scales NominalRate down; must be in (0, 1].
	SafetyFactor float64
	// Capacity caps the bucket. Defaults to the effective rate when zero.
	Capacity float64
}

var (
	sharedMu sync.Mutex
	shared   *Bucket
)

// Shared returns the process-wide bucket that paces every fetcher against
// the archive. The first call constructs it with effective rate
// NominalRate*SafetyFactor; later calls return the existing bucket and
// report false, ignoring their arguments. The first-init-wins behavior is
// deliberate: the archive budget is one per process, whatever each caller
// thinks the parameters should be.
func Shared(cfg SharedConfig, opts ...Option) (*Bucket, bool) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		return shared, false
	}
	factor := cfg.SafetyFactor
	if factor <= 0 || factor > 1 {
		factor = 1
	}
	shared = New(Config{
		Rate:     cfg.NominalRate * factor,
		Capacity: cfg.Capacity,
	}, opts...)
	return shared, true
}

// resetShared clears the process-wide bucket. Tests only.
func resetShared() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	shared = nil
}
