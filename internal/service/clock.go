package service

import "time"

// Clock supplies the instant a run starts. It names the timestamped build
// directory and stamps the receipt.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in local time, so build directory
// names match the operator's wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// TestClock always returns FixedTime.
type TestClock struct {
	FixedTime time.Time
}

func (c TestClock) Now() time.Time { return c.FixedTime }
