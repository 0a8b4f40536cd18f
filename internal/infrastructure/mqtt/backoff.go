package mqtt

import (
	"math"
	"math/rand"
	"time"
)

// backoffPolicy computes reconnection delays.
//
// The base delay grows exponentially with the attempt number and is capped
// at max. Jitter adds a random fraction on top of the base delay so that a
// fleet of hosts recovering from the same broker outage does not reconnect
// in lockstep.
type backoffPolicy struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64
}

// delay returns the deterministic base delay for the given attempt.
// Attempts are 1-based; attempt 1 yields the initial delay.
func (b backoffPolicy) delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := float64(b.initial) * math.Pow(b.multiplier, float64(attempt-1))
	if d > float64(b.max) || d < 0 {
		return b.max
	}
	return time.Duration(d)
}

// next returns the delay for the given attempt with jitter applied.
// The result is always in [delay, delay*(1+jitter)].
func (b backoffPolicy) next(attempt int) time.Duration {
	d := b.delay(attempt)
	if b.jitter <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*b.jitter*float64(d))
}
