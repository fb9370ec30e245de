package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelP17/HARPY-sub000/internal/timeutil"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l2index"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l3lod"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
	}
	var zero T
	return zero
}

func assertQuiet[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected emission: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func aircraft(id string, lat, lon float64) l1wire.TrackDelta {
	return l1wire.TrackDelta{ID: id, Kind: l1wire.KindAircraft, Position: l1wire.Position{Lat: lat, Lon: lon, Alt: 9000}}
}

func liveIDs(live []l2index.TrackState) []string {
	ids := make([]string, len(live))
	for i := range live {
		ids[i] = live[i].ID
	}
	return ids
}

func TestIndexStage_ThrottleAndForcedEmission(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	batches := make(chan []l1wire.TrackDelta)
	stage := &IndexStage{
		store:    l2index.NewStore(),
		batches:  batches,
		filters:  NewLatest[l2index.FilterState](),
		out:      NewLatest[[]l2index.TrackState](),
		throttle: newThrottle(clock, 100*time.Millisecond),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stage.Serve(ctx)

	// First batch goes straight through.
	batches <- []l1wire.TrackDelta{aircraft("a", 1, 1)}
	assert.Equal(t, []string{"a"}, liveIDs(recv(t, stage.out.C())))

	// Two more batches inside the interval coalesce into one emission.
	batches <- []l1wire.TrackDelta{aircraft("b", 2, 2)}
	batches <- []l1wire.TrackDelta{aircraft("c", 3, 3)}
	require.Eventually(t, func() bool { return clock.PendingTimers() == 1 }, time.Second, time.Millisecond)
	assertQuiet(t, stage.out.C())

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, liveIDs(recv(t, stage.out.C())))

	// A pending timed emission is superseded by a filter change.
	batches <- []l1wire.TrackDelta{{ID: "v", Kind: l1wire.KindVessel}}
	require.Eventually(t, func() bool { return clock.PendingTimers() == 1 }, time.Second, time.Millisecond)

	stage.filters.Put(l2index.DefaultFilter().WithKinds(l2index.NewKindSet(l1wire.KindVessel)))
	assert.Equal(t, []string{"v"}, liveIDs(recv(t, stage.out.C())))
	require.Eventually(t, func() bool { return clock.PendingTimers() == 0 }, time.Second, time.Millisecond)
}

func TestIndexStage_StateSurvivesRestart(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	batches := make(chan []l1wire.TrackDelta)
	stage := &IndexStage{
		store:    l2index.NewStore(),
		batches:  batches,
		filters:  NewLatest[l2index.FilterState](),
		out:      NewLatest[[]l2index.TrackState](),
		throttle: newThrottle(clock, 100*time.Millisecond),
	}

	ctx1, cancel1 := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stage.Serve(ctx1)
		close(done)
	}()
	batches <- []l1wire.TrackDelta{aircraft("a", 1, 1)}
	recv(t, stage.out.C())
	cancel1()
	<-done

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	go stage.Serve(ctx2)

	clock.Advance(time.Second)
	batches <- []l1wire.TrackDelta{aircraft("b", 2, 2)}
	assert.Equal(t, []string{"a", "b"}, liveIDs(recv(t, stage.out.C())))
}

func TestIndexStage_RestartDeliversDeferredEmission(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	batches := make(chan []l1wire.TrackDelta)
	stage := &IndexStage{
		store:    l2index.NewStore(),
		batches:  batches,
		filters:  NewLatest[l2index.FilterState](),
		out:      NewLatest[[]l2index.TrackState](),
		throttle: newThrottle(clock, 100*time.Millisecond),
	}

	ctx1, cancel1 := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stage.Serve(ctx1)
		close(done)
	}()
	batches <- []l1wire.TrackDelta{aircraft("a", 1, 1)}
	assert.Equal(t, []string{"a"}, liveIDs(recv(t, stage.out.C())))

	// Inside the interval: deferred, then the goroutine dies before it fires.
	batches <- []l1wire.TrackDelta{aircraft("b", 2, 2)}
	cancel1()
	<-done
	assert.Zero(t, clock.PendingTimers())

	clock.Advance(time.Second)
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	go stage.Serve(ctx2)

	// No new input: the owed emission is delivered by the restarted stage.
	assert.Equal(t, []string{"a", "b"}, liveIDs(recv(t, stage.out.C())))
}

func TestClusterStage_LodChangeForcesEmission(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	stage := &ClusterStage{
		live:     NewLatest[[]l2index.TrackState](),
		heights:  NewLatest[float64](),
		out:      NewLatest[[]l3lod.RenderEntity](),
		throttle: newThrottle(clock, 100*time.Millisecond),
		lod:      l3lod.FromCameraHeight(15_000_000),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stage.Serve(ctx)

	live := []l2index.TrackState{
		{ID: "a", Kind: l1wire.KindAircraft, Lat: 10, Lon: 10},
		{ID: "b", Kind: l1wire.KindAircraft, Lat: 10.5, Lon: 10.5},
	}
	stage.live.Put(live)
	out := recv(t, stage.out.C())
	require.Len(t, out, 1)
	assert.True(t, out[0].IsCluster())

	// Close range: no clustering, emitted without advancing the clock.
	stage.heights.Put(500_000)
	out = recv(t, stage.out.C())
	assert.Len(t, out, 2)

	// Same LOD band: nothing to re-emit.
	stage.heights.Put(400_000)
	assertQuiet(t, stage.out.C())
}

func TestClusterStage_CoalescesLiveUpdates(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	stage := &ClusterStage{
		live:     NewLatest[[]l2index.TrackState](),
		heights:  NewLatest[float64](),
		out:      NewLatest[[]l3lod.RenderEntity](),
		throttle: newThrottle(clock, 100*time.Millisecond),
		lod:      l3lod.CloseRange,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stage.Serve(ctx)

	stage.live.Put([]l2index.TrackState{{ID: "x0"}})
	recv(t, stage.out.C())

	for i := 1; i <= 5; i++ {
		var live []l2index.TrackState
		for j := 0; j < i; j++ {
			live = append(live, l2index.TrackState{ID: fmt.Sprintf("x%d", j)})
		}
		stage.live.Put(live)
	}
	require.Eventually(t, func() bool { return clock.PendingTimers() == 1 }, time.Second, time.Millisecond)
	// Let the stage drain whichever list is still in the mailbox.
	require.Eventually(t, func() bool { return len(stage.live.C()) == 0 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	clock.Advance(100 * time.Millisecond)
	out := recv(t, stage.out.C())
	assert.Len(t, out, 5, "the newest live list wins")
}

func TestDecodeStage_RoutesEvents(t *testing.T) {
	in := make(chan []byte)
	out := make(chan []l1wire.TrackDelta, 1)
	events := make(chan l1wire.Event, 4)
	stage := &DecodeStage{
		decoder: l1wire.NewDecoder(nil),
		in:      in,
		out:     out,
		sink:    EventSinkFunc(func(ev l1wire.Event) { events <- ev }),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stage.Serve(ctx)

	mustMarshal := func(p l1wire.Payload) []byte {
		b, err := l1wire.Marshal(l1wire.Envelope{SchemaVersion: "1", Payload: p})
		require.NoError(t, err)
		return b
	}

	in <- []byte{0xde, 0xad, 0xbe, 0xef}
	in <- mustMarshal(&l1wire.SubscriptionRequest{Mode: l1wire.ModeLive})
	in <- mustMarshal(&l1wire.AlertUpsert{ID: "al", Severity: 2})
	in <- mustMarshal(&l1wire.TrackDeltaBatch{Deltas: []l1wire.TrackDelta{aircraft("a", 0, 0)}})

	ev := recv(t, (<-chan l1wire.Event)(events))
	assert.Equal(t, l1wire.EventAlert, ev.Type())
	deltas := recv(t, (<-chan []l1wire.TrackDelta)(out))
	require.Len(t, deltas, 1)
	assert.Equal(t, "a", deltas[0].ID)
	assert.Empty(t, events, "malformed and client-bound envelopes produce no events")
}

func TestLatest_KeepsNewest(t *testing.T) {
	l := NewLatest[int]()
	for i := 0; i < 10; i++ {
		l.Put(i)
	}
	v, ok := l.TryTake()
	require.True(t, ok)
	assert.Equal(t, 9, v)

	_, ok = l.TryTake()
	assert.False(t, ok)
}
