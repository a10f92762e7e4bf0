package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock {
	return systemClock{}
}

// Func adapts a function to Clock. Tests use it to pin or advance time.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }
