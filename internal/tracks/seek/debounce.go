package seek

import (
	"sync"
	"time"

	"github.com/AngelP17/HARPY-sub000/internal/timeutil"
)

// Debouncer calls fn with the latest triggered value once no new value has
// arrived for delay. A cancelled or superseded value is never delivered.
type Debouncer[T any] struct {
	clock timeutil.Clock
	delay time.Duration
	fn    func(T)

	mu    sync.Mutex
	gen   uint64
	timer timeutil.Timer
}

// NewDebouncer returns a Debouncer that delivers to fn.
func NewDebouncer[T any](clock timeutil.Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{clock: clock, delay: delay, fn: fn}
}

// Trigger restarts the delay with v as the pending value.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen, v) })
}

// Cancel drops the pending value, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a value is waiting to be delivered.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	// A timer that lost the race with Stop still runs; the generation
	// tells it apart from the live one.
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn(v)
}
