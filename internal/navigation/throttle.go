package navigation

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Throttle coalesces a burst of values into one, delivered at the trailing
// edge of a fixed window. The first Offer in an idle period opens the
// window; later offers in the same window replace the pending value.
type Throttle[T any] struct {
	clock    clockwork.Clock
	interval time.Duration

	pending  T
	armed    bool
	deadline time.Time
}

// NewThrottle returns a Throttle with the given window length.
func NewThrottle[T any](clock clockwork.Clock, interval time.Duration) *Throttle[T] {
	if interval < 0 {
		interval = 0
	}
	return &Throttle[T]{clock: clock, interval: interval}
}

// Offer records v as the pending value and reports whether it opened a
// new window, in which case the caller should arrange a Take at Deadline.
func (t *Throttle[T]) Offer(v T) bool {
	t.pending = v
	if t.armed {
		return false
	}
	t.armed = true
	t.deadline = t.clock.Now().Add(t.interval)
	return true
}

// Take returns the pending value once its window has closed.
func (t *Throttle[T]) Take() (T, bool) {
	var zero T
	if !t.armed || t.clock.Now().Before(t.deadline) {
		return zero, false
	}
	v := t.pending
	t.pending, t.armed = zero, false
	return v, true
}

// Pending reports whether a window is open.
func (t *Throttle[T]) Pending() bool { return t.armed }

// Deadline returns when the open window closes.
func (t *Throttle[T]) Deadline() time.Time { return t.deadline }
