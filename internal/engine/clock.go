package engine

import "time"

// Clock abstracts wall time so tests can drive elapsed time by hand.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
