// Package throttle provides the token bucket shared by every upload to cap
// aggregate byte throughput.
package throttle

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// maxBurst bounds the tokens a single wait can request.
const maxBurst = 1 << 30

// Throttle is a token-bucket limiter over bytes. It is safe for concurrent use.
type Throttle struct {
	limiter *rate.Limiter
	burst   int
}

// New creates a Throttle admitting bytesPerSecond on average. A value of zero
// or less means unbounded. The bucket starts empty and accumulates at most
// one second's worth of tokens while idle.
func New(bytesPerSecond float64) *Throttle {
	if bytesPerSecond <= 0 || math.IsInf(bytesPerSecond, 1) {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 0)}
	}

	burst := int(math.Ceil(bytesPerSecond))
	if burst > maxBurst {
		burst = maxBurst
	}

	limiter := rate.NewLimiter(rate.Limit(bytesPerSecond), burst)
	limiter.AllowN(time.Now(), burst)

	return &Throttle{limiter: limiter, burst: burst}
}

// Unbounded reports whether the throttle never blocks.
func (t *Throttle) Unbounded() bool {
	return t.limiter.Limit() == rate.Inf
}

// Rate returns the sustained rate in bytes per second, or +Inf when unbounded.
func (t *Throttle) Rate() float64 {
	return float64(t.limiter.Limit())
}

// Acquire blocks until n bytes' worth of tokens are available and debits
// them. Requests larger than the bucket are admitted in burst-sized pieces.
// It returns an error only when ctx is done first.
func (t *Throttle) Acquire(ctx context.Context, n int) error {
	if n <= 0 || t.Unbounded() {
		return nil
	}

	for remaining := n; remaining > 0; {
		wait := t.burst
		if remaining < wait {
			wait = remaining
		}
		if err := t.limiter.WaitN(ctx, wait); err != nil {
			return err
		}
		remaining -= wait
	}
	return nil
}
