package domain

import "github.com/jonboulle/clockwork"

// clock is the process time source. The engine reads it when no explicit
// clock is configured; tests freeze time via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the process time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the current process time source.
func Clock() clockwork.Clock {
	return clock
}
