// Package backoff holds the exponential delay calculation shared by the
// health monitor and the upstream request executor.
package backoff

import "time"

// Next returns the delay to wait after the given zero-based attempt,
// doubling from base and capped at max. No jitter is applied so both
// consumers behave identically.
func Next(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 || max <= 0 {
		return 0
	}
	if base >= max {
		return max
	}
	d := base
	for i := 0; i < attempt; i++ {
		d <<= 1
		// d can wrap negative once the shift overflows
		if d >= max || d <= 0 {
			return max
		}
	}
	return d
}
