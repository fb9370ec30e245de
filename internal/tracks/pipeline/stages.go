package pipeline

import (
	"context"
	"errors"

	"github.com/AngelP17/HARPY-sub000/internal/metrics"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l2index"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l3lod"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l4pack"
)

const (
	triggerTimed  = "timed"
	triggerForced = "forced"
)

func trigger(force bool) string {
	if force {
		return triggerForced
	}
	return triggerTimed
}

// DecodeStage turns raw envelopes into events. Track batches go to the
// index; every other event goes to the sink. Undecodable envelopes are
// logged and dropped.
type DecodeStage struct {
	decoder *l1wire.Decoder
	in      <-chan []byte
	out     chan<- []l1wire.TrackDelta
	sink    EventSink
}

func (s *DecodeStage) String() string { return "decode-stage" }

// Serve implements suture.Service.
func (s *DecodeStage) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw := <-s.in:
			s.handle(ctx, raw)
		}
	}
}

func (s *DecodeStage) handle(ctx context.Context, raw []byte) {
	ev, err := s.decoder.Decode(raw)
	if errors.Is(err, l1wire.ErrIgnoredPayload) {
		metrics.EnvelopesDropped.WithLabelValues("ignored").Inc()
		tracef("ignoring client-bound payload (%d bytes)", len(raw))
		return
	}
	if err != nil {
		metrics.EnvelopesDropped.WithLabelValues("decode").Inc()
		opsf("dropping envelope (%d bytes): %v", len(raw), err)
		return
	}
	metrics.EnvelopesDecoded.WithLabelValues(ev.Type().String()).Inc()

	batch, ok := ev.(*l1wire.TrackBatchEvent)
	if !ok {
		s.sink.HandleEvent(ev)
		return
	}
	if len(batch.Deltas) == 0 {
		return
	}
	select {
	case s.out <- batch.Deltas:
	case <-ctx.Done():
	}
}

// IndexStage owns the track store. It survives restarts of its goroutine
// because the store lives on the stage.
type IndexStage struct {
	store    *l2index.Store
	batches  <-chan []l1wire.TrackDelta
	filters  *Latest[l2index.FilterState]
	out      *Latest[[]l2index.TrackState]
	throttle *throttle
	// dirty is set while a deferred emission is owed. Stop drops the armed
	// timer, so Serve re-requests on restart.
	dirty bool
}

func (s *IndexStage) String() string { return "index-stage" }

// Serve implements suture.Service.
func (s *IndexStage) Serve(ctx context.Context) error {
	defer s.throttle.Stop()
	if s.dirty {
		s.request(false)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case deltas := <-s.batches:
			s.store.Apply(deltas)
			s.request(false)
		case f := <-s.filters.C():
			if err := s.store.SetFilter(f); err != nil {
				opsf("ignoring filter: %v", err)
				continue
			}
			s.request(true)
		case <-s.throttle.C():
			s.throttle.Fired()
			s.emit(false)
		}
	}
}

func (s *IndexStage) request(force bool) {
	if s.throttle.Request(force) {
		s.emit(force)
		return
	}
	s.dirty = true
}

func (s *IndexStage) emit(force bool) {
	s.dirty = false
	live := s.store.Live()
	s.out.Put(live)
	metrics.StageEmissions.WithLabelValues("index", trigger(force)).Inc()
	tracef("index emit live=%d tracked=%d forced=%t", len(live), s.store.Len(), force)
}

// ClusterStage applies the current LOD to the newest live set.
type ClusterStage struct {
	live     *Latest[[]l2index.TrackState]
	heights  *Latest[float64]
	out      *Latest[[]l3lod.RenderEntity]
	throttle *throttle

	current []l2index.TrackState
	lod     l3lod.LodState
	dirty   bool
}

func (s *ClusterStage) String() string { return "cluster-stage" }

// Serve implements suture.Service.
func (s *ClusterStage) Serve(ctx context.Context) error {
	defer s.throttle.Stop()
	if s.dirty {
		s.request(false)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case live := <-s.live.C():
			s.current = live
			s.request(false)
		case h := <-s.heights.C():
			lod := l3lod.FromCameraHeight(h)
			if lod == s.lod {
				continue
			}
			diagf("lod change at camera height %.0fm: %s -> %s", h, s.lod, lod)
			s.lod = lod
			s.request(true)
		case <-s.throttle.C():
			s.throttle.Fired()
			s.emit(false)
		}
	}
}

func (s *ClusterStage) request(force bool) {
	if s.throttle.Request(force) {
		s.emit(force)
		return
	}
	s.dirty = true
}

func (s *ClusterStage) emit(force bool) {
	s.dirty = false
	s.out.Put(l3lod.Process(s.current, s.lod))
	metrics.StageEmissions.WithLabelValues("cluster", trigger(force)).Inc()
}

// PackStage packs every entity list it receives. Its input is already
// throttled, so it forwards without further delay.
type PackStage struct {
	in  *Latest[[]l3lod.RenderEntity]
	out *Latest[*l4pack.RenderPayload]
}

func (s *PackStage) String() string { return "pack-stage" }

// Serve implements suture.Service.
func (s *PackStage) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entities := <-s.in.C():
			s.out.Put(l4pack.Pack(entities))
			metrics.StageEmissions.WithLabelValues("pack", triggerTimed).Inc()
		}
	}
}
