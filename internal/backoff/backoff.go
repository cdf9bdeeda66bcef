// Package backoff computes retry delays for failing poll operations.
package backoff

import "time"

// MaxDelay is the default ceiling for a backed-off polling delay.
// No matter how long a failure streak grows, ticks never slow down
// beyond this.
const MaxDelay = 60 * time.Second

// Delay returns the polling delay after the given number of consecutive
// failures, starting from base. Zero failures carry no penalty; each
// subsequent failure doubles the delay, capped at [MaxDelay].
//
// Delay is pure: no timers, no state, same inputs give the same output.
func Delay(failures int, base time.Duration) time.Duration {
	return DelayCapped(failures, base, MaxDelay)
}

// DelayCapped is [Delay] with an explicit ceiling.
func DelayCapped(failures int, base, cap time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}

	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= cap || d <= 0 { // <= 0 guards duration overflow
			return cap
		}
	}
	return d
}
