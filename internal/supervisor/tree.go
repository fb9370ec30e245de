package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig is the restart policy shared by every supervisor in the tree.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns the default restart policy.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c *TreeConfig) applyDefaults() {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Spec returns a suture.Spec with this policy and no event hook. Child
// supervisors inherit the hook of the supervisor they are added to.
func (c TreeConfig) Spec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// Tree is the root supervisor and its three layers.
type Tree struct {
	root     *suture.Supervisor
	feed     *suture.Supervisor
	pipeline *suture.Supervisor
	control  *suture.Supervisor
	config   TreeConfig
	hook     suture.EventHook
}

// NewTree builds the tree. Supervisor events are logged through logger.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	config.applyDefaults()

	hook := (&sutureslog.Handler{Logger: logger}).MustHook()
	rootSpec := config.Spec()
	rootSpec.EventHook = hook

	root := suture.New("trackview", rootSpec)
	feed := suture.New("feed-layer", config.Spec())
	pipeline := suture.New("pipeline-layer", config.Spec())
	control := suture.New("control-layer", config.Spec())

	root.Add(feed)
	root.Add(pipeline)
	root.Add(control)

	return &Tree{
		root:     root,
		feed:     feed,
		pipeline: pipeline,
		control:  control,
		config:   config,
		hook:     hook,
	}
}

// ServiceSpec is the policy plus the tree's event hook, for services that
// run a supervisor of their own inside Serve.
func (t *Tree) ServiceSpec() suture.Spec {
	spec := t.config.Spec()
	spec.EventHook = t.hook
	return spec
}

// Config returns the effective policy after defaults.
func (t *Tree) Config() TreeConfig { return t.config }

// Root returns the root supervisor.
func (t *Tree) Root() *suture.Supervisor { return t.root }

// AddFeedService adds an upstream source.
func (t *Tree) AddFeedService(svc suture.Service) suture.ServiceToken {
	return t.feed.Add(svc)
}

// AddPipelineService adds a transform pipeline.
func (t *Tree) AddPipelineService(svc suture.Service) suture.ServiceToken {
	return t.pipeline.Add(svc)
}

// AddControlService adds a coordinator or server.
func (t *Tree) AddControlService(svc suture.Service) suture.ServiceToken {
	return t.control.Add(svc)
}

// Serve runs the tree until ctx ends.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored shutdown.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
