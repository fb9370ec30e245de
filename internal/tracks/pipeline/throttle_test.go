package pipeline

import (
	"testing"
	"time"

	"github.com/AngelP17/HARPY-sub000/internal/timeutil"
)

func fired(th *throttle) bool {
	select {
	case <-th.C():
		th.Fired()
		return true
	default:
		return false
	}
}

func TestThrottle_CoalescesWithinInterval(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	th := newThrottle(clock, 100*time.Millisecond)

	if !th.Request(false) {
		t.Fatal("first request should emit immediately")
	}

	clock.Advance(10 * time.Millisecond)
	if th.Request(false) {
		t.Fatal("request inside the interval should be deferred")
	}
	if th.C() == nil {
		t.Fatal("deferred emission should be armed")
	}

	clock.Advance(40 * time.Millisecond)
	if th.Request(false) {
		t.Fatal("second request inside the interval should be coalesced")
	}
	if n := clock.PendingTimers(); n != 1 {
		t.Fatalf("pending timers = %d, want 1", n)
	}

	clock.Advance(40 * time.Millisecond) // t=90ms
	if fired(th) {
		t.Fatal("deferred emission fired early")
	}

	clock.Advance(10 * time.Millisecond) // t=100ms
	if !fired(th) {
		t.Fatal("deferred emission should fire at the interval boundary")
	}
	if th.C() != nil {
		t.Fatal("nothing should be armed after firing")
	}
}

func TestThrottle_IdleStreamEmitsImmediately(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	th := newThrottle(clock, 100*time.Millisecond)

	th.Request(false)
	clock.Advance(250 * time.Millisecond)
	if !th.Request(false) {
		t.Error("request after a quiet interval should emit immediately")
	}
}

func TestThrottle_ForcedBypassesAndDisarms(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	th := newThrottle(clock, 100*time.Millisecond)

	th.Request(false)
	clock.Advance(20 * time.Millisecond)
	if th.Request(false) {
		t.Fatal("expected deferral")
	}

	if !th.Request(true) {
		t.Fatal("forced request must emit immediately")
	}
	if th.C() != nil {
		t.Fatal("forced emission should drop the armed emission")
	}
	if n := clock.PendingTimers(); n != 0 {
		t.Fatalf("pending timers = %d, want 0", n)
	}

	// Forced again right away: still immediate.
	if !th.Request(true) {
		t.Fatal("forced request must never be throttled")
	}

	// The next timed request waits, but never longer than one interval.
	clock.Advance(time.Millisecond)
	if th.Request(false) {
		t.Fatal("timed request straight after a forced one should be deferred")
	}
	clock.Advance(100 * time.Millisecond)
	if !fired(th) {
		t.Error("deferred emission should fire within one interval")
	}
}

func TestThrottle_StopDisarms(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	th := newThrottle(clock, 100*time.Millisecond)
	th.Request(false)
	th.Request(false)

	th.Stop()
	clock.Advance(time.Second)
	if th.C() != nil {
		t.Error("stopped throttle should have nothing armed")
	}
	if n := clock.PendingTimers(); n != 0 {
		t.Errorf("pending timers = %d, want 0", n)
	}
}
