package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/AngelP17/HARPY-sub000/internal/timeutil"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l2index"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l3lod"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l4pack"
)

// Defaults for Config zero values.
const (
	DefaultInboxSize     = 256
	DefaultBatchQueue    = 64
	DefaultCameraHeightM = 20_000_000
)

// Config configures a Pipeline.
type Config struct {
	Clock         timeutil.Clock
	EmitInterval  time.Duration
	InboxSize     int     // raw envelopes buffered ahead of the decoder
	BatchQueue    int     // decoded batches buffered ahead of the index
	CameraHeightM float64 // initial LOD input
	Sink          EventSink

	// Spec configures the supervisor Serve runs the stages under,
	// including its EventHook.
	Spec suture.Spec
}

func (c *Config) applyDefaults() {
	if c.Clock == nil {
		c.Clock = timeutil.RealClock{}
	}
	if c.EmitInterval <= 0 {
		c.EmitInterval = DefaultEmitInterval
	}
	if c.InboxSize <= 0 {
		c.InboxSize = DefaultInboxSize
	}
	if c.BatchQueue <= 0 {
		c.BatchQueue = DefaultBatchQueue
	}
	if c.CameraHeightM <= 0 {
		c.CameraHeightM = DefaultCameraHeightM
	}
	if c.Sink == nil {
		c.Sink = LogSink{}
	}
}

// Pipeline wires the four stages together and is itself a suture.Service.
type Pipeline struct {
	spec  suture.Spec
	inbox chan []byte

	mu     sync.Mutex
	filter l2index.FilterState

	filters  *Latest[l2index.FilterState]
	heights  *Latest[float64]
	payloads *Latest[*l4pack.RenderPayload]

	decode  *DecodeStage
	index   *IndexStage
	cluster *ClusterStage
	pack    *PackStage
}

// New builds a pipeline. Nothing runs until Serve.
func New(cfg Config) *Pipeline {
	cfg.applyDefaults()

	inbox := make(chan []byte, cfg.InboxSize)
	batches := make(chan []l1wire.TrackDelta, cfg.BatchQueue)
	live := NewLatest[[]l2index.TrackState]()
	entities := NewLatest[[]l3lod.RenderEntity]()

	p := &Pipeline{
		spec:     cfg.Spec,
		inbox:    inbox,
		filter:   l2index.DefaultFilter(),
		filters:  NewLatest[l2index.FilterState](),
		heights:  NewLatest[float64](),
		payloads: NewLatest[*l4pack.RenderPayload](),
	}
	p.decode = &DecodeStage{
		decoder: l1wire.NewDecoder(cfg.Clock),
		in:      inbox,
		out:     batches,
		sink:    cfg.Sink,
	}
	p.index = &IndexStage{
		store:    l2index.NewStore(),
		batches:  batches,
		filters:  p.filters,
		out:      live,
		throttle: newThrottle(cfg.Clock, cfg.EmitInterval),
	}
	p.cluster = &ClusterStage{
		live:     live,
		heights:  p.heights,
		out:      entities,
		throttle: newThrottle(cfg.Clock, cfg.EmitInterval),
		lod:      l3lod.FromCameraHeight(cfg.CameraHeightM),
	}
	p.pack = &PackStage{in: entities, out: p.payloads}
	return p
}

func (p *Pipeline) String() string { return "pipeline" }

// Serve runs every stage under a dedicated supervisor until ctx ends.
func (p *Pipeline) Serve(ctx context.Context) error {
	sup := suture.New("pipeline", p.spec)
	sup.Add(p.decode)
	sup.Add(p.index)
	sup.Add(p.cluster)
	sup.Add(p.pack)
	return sup.Serve(ctx)
}

// Ingest queues one raw envelope, blocking while the inbox is full.
func (p *Pipeline) Ingest(ctx context.Context, raw []byte) error {
	select {
	case p.inbox <- raw:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetFilter replaces the whole filter and forces an emission.
func (p *Pipeline) SetFilter(f l2index.FilterState) error {
	if err := f.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = f
	p.filters.Put(f)
	return nil
}

// SetKinds replaces the allowed kinds, keeping the ranges, and forces an
// emission.
func (p *Pipeline) SetKinds(kinds l2index.KindSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = p.filter.WithKinds(kinds)
	p.filters.Put(p.filter)
}

// Filter returns the most recently requested filter.
func (p *Pipeline) Filter() l2index.FilterState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// SetCameraHeight feeds the LOD stage. Only heights that change the
// LodState cause an emission.
func (p *Pipeline) SetCameraHeight(heightM float64) {
	p.heights.Put(heightM)
}

// Payloads delivers packed payloads. A slow reader sees only the newest;
// each payload is owned by whoever receives it.
func (p *Pipeline) Payloads() <-chan *l4pack.RenderPayload {
	return p.payloads.C()
}
