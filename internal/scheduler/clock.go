package scheduler

import "time"

// Timer is a one-shot timer armed by a Clock. Stop reports whether the
// timer was stopped before its function ran.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall-clock time so tests can drive task firing without
// waiting on real time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// NewClock returns a Clock backed by the system clock
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
