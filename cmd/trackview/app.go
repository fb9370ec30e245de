package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/AngelP17/HARPY-sub000/internal/config"
	"github.com/AngelP17/HARPY-sub000/internal/httputil"
	"github.com/AngelP17/HARPY-sub000/internal/monitoring"
	"github.com/AngelP17/HARPY-sub000/internal/supervisor"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/feed"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l2index"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l4pack"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/pipeline"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/seek"
)

// app owns every long-lived component and the tree that runs them.
type app struct {
	transport   feed.Transport
	pipeline    *pipeline.Pipeline
	coordinator *seek.Coordinator
	drain       *payloadDrain
	tree        *supervisor.Tree
}

func newApp(cfg *config.Config) (*app, error) {
	layers, err := cfg.Pipeline.Kinds()
	if err != nil {
		return nil, err
	}

	tree := supervisor.NewTree(monitoring.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})

	transport, err := feed.Build(feed.Config{
		Transport:         cfg.Feed.Transport,
		NATSURL:           cfg.Feed.NATSURL,
		EnvelopeTopic:     cfg.Feed.EnvelopeTopic,
		SubscriptionTopic: cfg.Feed.SubscriptionTopic,
		QueueGroup:        cfg.Feed.QueueGroup,
	}, feed.Logger())
	if err != nil {
		return nil, err
	}

	p := pipeline.New(pipeline.Config{
		EmitInterval:  cfg.Pipeline.EmitInterval,
		InboxSize:     cfg.Pipeline.InboxSize,
		BatchQueue:    cfg.Pipeline.BatchQueue,
		CameraHeightM: cfg.Pipeline.CameraHeightM,
		Sink:          pipeline.LogSink{},
		Spec:          tree.ServiceSpec(),
	})
	p.SetKinds(l2index.NewKindSet(layers...))

	var lookup seek.Lookup
	if cfg.Seek.Endpoint != "" {
		h, err := seek.NewHTTPLookup(seek.LookupConfig{
			Endpoint:        cfg.Seek.Endpoint,
			Timeout:         cfg.Seek.RequestTimeout,
			BreakerFailures: cfg.Seek.BreakerFailures,
			BreakerCooldown: cfg.Seek.BreakerCooldown,
		}, httputil.NewStandardClient(nil))
		if err != nil {
			_ = transport.Close()
			return nil, err
		}
		lookup = h
	}

	coord := seek.NewCoordinator(seek.Config{
		Debounce:       cfg.Seek.Debounce,
		Lookback:       cfg.Seek.Lookback,
		PlaybackWindow: cfg.Seek.PlaybackWindow,
		TickInterval:   cfg.Seek.TickInterval,
		Viewport:       cfg.Pipeline.Viewport.BBox(),
		Layers:         layers,
	}, lookup, feed.NewPublisher(transport.Publisher, cfg.Feed.SubscriptionTopic, nil))

	a := &app{
		transport:   transport,
		pipeline:    p,
		coordinator: coord,
		drain:       &payloadDrain{payloads: p.Payloads()},
		tree:        tree,
	}

	tree.AddFeedService(feed.NewSource(transport.Subscriber, cfg.Feed.EnvelopeTopic, p))
	tree.AddPipelineService(p)
	tree.AddPipelineService(a.drain)
	tree.AddControlService(coord)
	if cfg.Metrics.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           newStatusMux(a),
			ReadHeaderTimeout: cfg.Supervisor.ShutdownTimeout,
		}
		tree.AddControlService(supervisor.NewHTTPServerService("status-http", srv, cfg.Supervisor.ShutdownTimeout))
	}
	return a, nil
}

func (a *app) Serve(ctx context.Context) error {
	return a.tree.Serve(ctx)
}

func (a *app) Close() error {
	if err := a.transport.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}

// payloadDrain stands in for the renderer: it takes every packed payload
// and keeps the newest for the status API.
type payloadDrain struct {
	payloads <-chan *l4pack.RenderPayload
	latest   atomic.Pointer[l4pack.RenderPayload]
	received atomic.Uint64
}

func (d *payloadDrain) String() string { return "payload-drain" }

func (d *payloadDrain) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pl, ok := <-d.payloads:
			if !ok {
				return errors.New("payload channel closed")
			}
			d.latest.Store(pl)
			d.received.Add(1)
		}
	}
}

// Latest returns the newest payload, or nil before the first.
func (d *payloadDrain) Latest() *l4pack.RenderPayload { return d.latest.Load() }
