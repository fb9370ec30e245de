package pipeline

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/AngelP17/HARPY-sub000/internal/timeutil"
)

// DefaultEmitInterval is the minimum spacing of timed stage emissions.
const DefaultEmitInterval = 100 * time.Millisecond

// throttle spaces a stage's emissions at least interval apart. State
// changes inside the interval are coalesced into one deferred emission,
// delivered on C. It is owned by a single stage goroutine.
type throttle struct {
	clock    timeutil.Clock
	limit    rate.Limit
	limiter  *rate.Limiter
	reserved *rate.Reservation
	timer    timeutil.Timer
}

func newThrottle(clock timeutil.Clock, interval time.Duration) *throttle {
	if interval <= 0 {
		interval = DefaultEmitInterval
	}
	limit := rate.Every(interval)
	return &throttle{
		clock:   clock,
		limit:   limit,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// C is the deferred emission channel, nil when nothing is armed.
func (t *throttle) C() <-chan time.Time {
	if t.timer == nil {
		return nil
	}
	return t.timer.C()
}

// Request reports whether the caller should emit now. Otherwise a deferred
// emission is armed on C unless one already is. A forced request always
// emits now and drops any armed emission.
func (t *throttle) Request(force bool) bool {
	now := t.clock.Now()
	if force {
		t.disarm(now)
		// The interval restarts at now; forced emissions never borrow tokens.
		t.limiter = rate.NewLimiter(t.limit, 1)
		t.limiter.ReserveN(now, 1)
		return true
	}
	if t.timer != nil {
		return false
	}
	r := t.limiter.ReserveN(now, 1)
	d := r.DelayFrom(now)
	if d <= 0 {
		return true
	}
	t.reserved = r
	t.timer = t.clock.NewTimer(d)
	return false
}

// Fired must be called after a value is received from C.
func (t *throttle) Fired() {
	t.timer = nil
	t.reserved = nil
}

// Stop drops any armed emission.
func (t *throttle) Stop() {
	t.disarm(t.clock.Now())
}

func (t *throttle) disarm(now time.Time) {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.reserved != nil {
		t.reserved.CancelAt(now)
		t.reserved = nil
	}
}
