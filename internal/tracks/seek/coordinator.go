package seek

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AngelP17/HARPY-sub000/internal/metrics"
	"github.com/AngelP17/HARPY-sub000/internal/timeutil"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

// Defaults for Config zero values.
const (
	DefaultDebounce       = 250 * time.Millisecond
	DefaultLookback       = time.Hour
	DefaultPlaybackWindow = time.Hour
	DefaultTickInterval   = time.Second
)

// ErrInvalidRate is returned by SetRate for non-positive or non-finite rates.
var ErrInvalidRate = errors.New("seek: playback rate must be positive and finite")

// WholeGlobe is the default viewport.
var WholeGlobe = l1wire.BBox{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180}

// SubscriptionPublisher sends subscription requests upstream.
type SubscriptionPublisher interface {
	PublishSubscription(ctx context.Context, req l1wire.SubscriptionRequest) error
}

// Config configures a Coordinator.
type Config struct {
	Clock          timeutil.Clock
	Debounce       time.Duration
	Lookback       time.Duration // lookup range is [ts-Lookback, ts]
	PlaybackWindow time.Duration // playback subscription is [ts-PlaybackWindow, ts]
	TickInterval   time.Duration
	Viewport       l1wire.BBox
	Layers         []l1wire.Kind
}

func (c *Config) applyDefaults() {
	if c.Clock == nil {
		c.Clock = timeutil.RealClock{}
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Lookback <= 0 {
		c.Lookback = DefaultLookback
	}
	if c.PlaybackWindow <= 0 {
		c.PlaybackWindow = DefaultPlaybackWindow
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.Viewport == (l1wire.BBox{}) {
		c.Viewport = WholeGlobe
	}
	if len(c.Layers) == 0 {
		c.Layers = l1wire.AllKinds
	}
}

// State is a point-in-time view of the timeline.
type State struct {
	Mode        l1wire.Mode   `json:"-"`
	ModeName    string        `json:"mode"`
	Playing     bool          `json:"playing"`
	Rate        float64       `json:"rate"`
	CurrentTime time.Time     `json:"current_time"`
	Layers      []l1wire.Kind `json:"-"`
	Viewport    l1wire.BBox   `json:"viewport"`
}

type scrubRequest struct {
	ts  time.Time
	gen uint64
}

// Coordinator owns the live/playback timeline, the upstream subscription
// and the debounced historical lookups. It is safe for concurrent use and
// is a suture.Service.
type Coordinator struct {
	cfg    Config
	clock  timeutil.Clock
	lookup Lookup
	pub    SubscriptionPublisher

	mu       sync.Mutex
	ctx      context.Context
	mode     l1wire.Mode
	playing  bool
	rate     float64
	current  time.Time
	layers   []l1wire.Kind
	viewport l1wire.BBox
	// lookupSeq identifies the newest lookup; older completions are dropped.
	lookupSeq uint64
	// scrubGen identifies the newest scrub. Scrub and GoLive bump it so a
	// debounced value already past the debouncer is still dropped.
	scrubGen uint64

	scrubs   *Debouncer[scrubRequest]
	meta     atomic.Pointer[SeekMeta]
	inflight sync.WaitGroup
}

// NewCoordinator starts in live mode. A nil lookup disables historical
// lookups; a nil publisher disables subscriptions.
func NewCoordinator(cfg Config, lookup Lookup, pub SubscriptionPublisher) *Coordinator {
	cfg.applyDefaults()
	c := &Coordinator{
		cfg:      cfg,
		clock:    cfg.Clock,
		lookup:   lookup,
		pub:      pub,
		ctx:      context.Background(),
		mode:     l1wire.ModeLive,
		playing:  true,
		rate:     1,
		current:  cfg.Clock.Now(),
		layers:   append([]l1wire.Kind(nil), cfg.Layers...),
		viewport: cfg.Viewport,
	}
	c.scrubs = NewDebouncer(cfg.Clock, cfg.Debounce, c.scrubSettled)
	c.meta.Store(&SeekMeta{})
	return c
}

func (c *Coordinator) String() string { return "seek-coordinator" }

// Serve publishes the initial subscription and advances the timeline every
// tick until ctx ends. In-flight lookups are waited for before returning.
func (c *Coordinator) Serve(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	c.mu.Lock()
	c.ctx = ctx
	req := c.subscriptionLocked()
	c.mu.Unlock()
	c.publish(ctx, req)

	for {
		select {
		case <-ctx.Done():
			c.scrubs.Cancel()
			c.inflight.Wait()
			return ctx.Err()
		case <-ticker.C():
			c.Tick()
		}
	}
}

// Tick advances the current time by one tick: to wall-clock now when live,
// by tick×rate when playing back. Playback never runs past now.
func (c *Coordinator) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	now := c.clock.Now()
	if c.mode == l1wire.ModeLive {
		c.current = now
		return
	}
	step := time.Duration(float64(c.cfg.TickInterval) * c.rate)
	c.current = c.current.Add(step)
	if c.current.After(now) {
		c.current = now
	}
}

// Pause stops the timeline. Pausing while live freezes the anchor at now
// and switches to a playback subscription.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	req, changed := c.pauseLocked()
	ctx := c.ctx
	c.mu.Unlock()
	if changed {
		c.publish(ctx, req)
	}
}

func (c *Coordinator) pauseLocked() (l1wire.SubscriptionRequest, bool) {
	c.playing = false
	if c.mode != l1wire.ModeLive {
		return l1wire.SubscriptionRequest{}, false
	}
	c.mode = l1wire.ModePlayback
	c.current = c.clock.Now()
	diagf("live -> playback, anchor %s", c.current.UTC().Format(time.RFC3339))
	return c.subscriptionLocked(), true
}

// Play resumes the timeline in the current mode.
func (c *Coordinator) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = true
}

// SetRate sets the playback rate multiplier.
func (c *Coordinator) SetRate(rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = rate
	return nil
}

// Scrub moves the playback position to ts. A scrub while live pauses
// first. Once scrubbing has been quiet for the debounce delay the
// subscription follows and a historical lookup runs for the newest ts.
func (c *Coordinator) Scrub(ts time.Time) {
	c.mu.Lock()
	req, changed := c.pauseLocked()
	c.current = ts
	c.scrubGen++
	c.scrubs.Trigger(scrubRequest{ts: ts, gen: c.scrubGen})
	ctx := c.ctx
	c.mu.Unlock()
	if changed {
		c.publish(ctx, req)
	}
}

// GoLive returns to live mode, cancelling any pending scrub and dropping
// any lookup still in flight.
func (c *Coordinator) GoLive() {
	c.scrubs.Cancel()
	c.mu.Lock()
	c.scrubGen++
	c.lookupSeq++
	if m := c.meta.Load(); m.Loading {
		next := *m
		next.Loading = false
		c.meta.Store(&next)
	}
	wasLive := c.mode == l1wire.ModeLive
	c.mode = l1wire.ModeLive
	c.playing = true
	c.current = c.clock.Now()
	req := c.subscriptionLocked()
	ctx := c.ctx
	c.mu.Unlock()
	if !wasLive {
		diagf("playback -> live")
	}
	c.publish(ctx, req)
}

// SetLayers replaces the subscribed kinds and resubscribes.
func (c *Coordinator) SetLayers(kinds []l1wire.Kind) {
	c.mu.Lock()
	c.layers = append([]l1wire.Kind(nil), kinds...)
	req := c.subscriptionLocked()
	ctx := c.ctx
	c.mu.Unlock()
	c.publish(ctx, req)
}

// SetViewport replaces the subscribed viewport and resubscribes.
func (c *Coordinator) SetViewport(b l1wire.BBox) {
	c.mu.Lock()
	c.viewport = b
	req := c.subscriptionLocked()
	ctx := c.ctx
	c.mu.Unlock()
	c.publish(ctx, req)
}

// Meta returns the current SeekMeta.
func (c *Coordinator) Meta() SeekMeta { return *c.meta.Load() }

// State returns the current timeline state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Mode:        c.mode,
		ModeName:    c.mode.String(),
		Playing:     c.playing,
		Rate:        c.rate,
		CurrentTime: c.current,
		Layers:      append([]l1wire.Kind(nil), c.layers...),
		Viewport:    c.viewport,
	}
}

// Subscription returns the request matching the current state.
func (c *Coordinator) Subscription() l1wire.SubscriptionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptionLocked()
}

func (c *Coordinator) subscriptionLocked() l1wire.SubscriptionRequest {
	req := l1wire.SubscriptionRequest{
		Viewport: c.viewport,
		Layers:   append([]l1wire.Kind(nil), c.layers...),
		Mode:     c.mode,
	}
	if c.mode == l1wire.ModePlayback {
		start, end := window(c.current, c.cfg.PlaybackWindow)
		req.TimeRange.Playback = &l1wire.PlaybackRange{StartTsMs: uint64(start), EndTsMs: uint64(end)}
	}
	return req
}

// window returns [ts-d, ts] in epoch milliseconds, floored at zero.
func window(ts time.Time, d time.Duration) (start, end int64) {
	end = ts.UnixMilli()
	start = ts.Add(-d).UnixMilli()
	if end < 0 {
		end = 0
	}
	if start < 0 {
		start = 0
	}
	return start, end
}

func (c *Coordinator) publish(ctx context.Context, req l1wire.SubscriptionRequest) {
	if c.pub == nil {
		return
	}
	if err := c.pub.PublishSubscription(ctx, req); err != nil {
		opsf("publish %s subscription: %v", req.Mode, err)
		return
	}
	metrics.SubscriptionsSent.WithLabelValues(req.Mode.String()).Inc()
}

// scrubSettled runs on the debounce timer with the newest scrub value.
func (c *Coordinator) scrubSettled(r scrubRequest) {
	ts := r.ts
	c.mu.Lock()
	if r.gen != c.scrubGen || c.mode != l1wire.ModePlayback {
		c.mu.Unlock()
		return
	}
	req := c.subscriptionLocked()
	ctx := c.ctx
	var (
		seq uint64
		q   RangeQuery
	)
	if c.lookup != nil {
		c.lookupSeq++
		seq = c.lookupSeq
		q.StartTsMs, q.EndTsMs = window(ts, c.cfg.Lookback)
		q.Layers = append([]l1wire.Kind(nil), c.layers...)
		next := *c.meta.Load()
		next.Loading = true
		c.meta.Store(&next)
		c.inflight.Add(1)
	}
	c.mu.Unlock()

	diagf("scrub settled at %s", ts.UTC().Format(time.RFC3339))
	c.publish(ctx, req)
	if c.lookup != nil {
		go c.runLookup(ctx, seq, q)
	}
}

func (c *Coordinator) runLookup(ctx context.Context, seq uint64, q RangeQuery) {
	defer c.inflight.Done()
	res, err := c.lookup.LookupRange(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.lookupSeq {
		return
	}
	now := c.clock.Now().UnixMilli()
	if err != nil {
		opsf("range lookup [%d, %d]: %v", q.StartTsMs, q.EndTsMs, err)
		next := *c.meta.Load()
		next.Loading = false
		next.Error = err.Error()
		next.UpdatedAtMs = now
		c.meta.Store(&next)
		return
	}
	diagf("range lookup [%d, %d]: snapshot %q, %d ranges, ~%d deltas",
		q.StartTsMs, q.EndTsMs, res.SnapshotID, res.Ranges, res.EstimatedDeltaCount)
	c.meta.Store(&SeekMeta{
		EstimatedDeltaCount: res.EstimatedDeltaCount,
		SnapshotID:          res.SnapshotID,
		UpdatedAtMs:         now,
	})
}
