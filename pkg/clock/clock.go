// Package clock provides the single monotonic time source shared by the PID
// compensator and the cycle controller.
package clock

import (
	"sync"
	"time"
)

// Clock returns a monotonically non-decreasing elapsed time.
type Clock interface {
	Now() time.Duration
}

// Monotonic measures time elapsed since it was created using the runtime's
// monotonic clock reading.
type Monotonic struct {
	start time.Time
}

func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

func (m *Monotonic) Now() time.Duration {
	return time.Since(m.start)
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Duration
}

func NewFake(start time.Duration) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Advance(d time.Duration) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d > 0 {
		f.now += d
	}
	return f.now
}

var (
	_ Clock = (*Monotonic)(nil)
	_ Clock = (*Fake)(nil)
)
