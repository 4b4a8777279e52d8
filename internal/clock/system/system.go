// Package system provides the clocks used to stamp extracted articles.
package system

import "time"

// Clock reads the wall clock.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC, truncated to microseconds to match
// Postgres timestamp precision.
func (Clock) Now() time.Time {
	return normalize(time.Now())
}

// Frozen always reports the same instant. Tests and replays use it to make
// FetchedAt stable.
type Frozen struct {
	at time.Time
}

// NewFrozen returns a clock stopped at t, normalized the same way as Clock.
func NewFrozen(t time.Time) Frozen {
	return Frozen{at: normalize(t)}
}

// Now returns the frozen instant.
func (f Frozen) Now() time.Time {
	return f.at
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
