package core

import "time"

// Clock supplies the current instant so expiry and timestamps can be tested
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
