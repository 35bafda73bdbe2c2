package showcase

import "time"

// Timer is the part of *time.Timer the controllers use.
type Timer interface {
	Stop() bool
}

// Clock schedules one-shot callbacks. Callbacks may run on any goroutine.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock is backed by time.AfterFunc.
var RealClock Clock = realClock{}

func stopTimer(t Timer) {
	if t != nil {
		t.Stop()
	}
}
