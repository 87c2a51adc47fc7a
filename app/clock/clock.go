// Package clock supplies "now" to every time-sensitive decision in the
// engine. Production code reads wall-clock time; simulation mode reads an
// operator-set instant.
package clock

import (
	"context"
	"time"
)

// Clock returns the current instant.
type Clock interface {
	Now(ctx context.Context) time.Time
}

// System is the wall clock.
type System struct{}

func (System) Now(context.Context) time.Time { return time.Now().UTC() }

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now(context.Context) time.Time { return time.Time(f).UTC() }

// FakeClock is a Clock whose behavior is supplied by NowFn.
type FakeClock struct {
	NowFn func() time.Time
}

func (f *FakeClock) Now(context.Context) time.Time {
	if f.NowFn != nil {
		return f.NowFn()
	}
	return time.Now().UTC()
}

var (
	_ Clock = System{}
	_ Clock = Fixed{}
	_ Clock = (*FakeClock)(nil)
)
