package edgar

import (
	"context"
	"time"
)

// Limiter gates outbound requests. Acquire blocks until a token is granted
// or the context ends, reporting whether the token was acquired.
type Limiter interface {
	Acquire(ctx context.Context, cost float64) bool
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
