// Package config loads and validates trackview's runtime configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

// Config is the root configuration.
type Config struct {
	Feed       FeedConfig       `koanf:"feed"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Seek       SeekConfig       `koanf:"seek"`
	Log        LogConfig        `koanf:"log"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// FeedConfig selects the upstream transport.
type FeedConfig struct {
	Transport         string `koanf:"transport" validate:"oneof=channel nats"`
	NATSURL           string `koanf:"nats_url"`
	EnvelopeTopic     string `koanf:"envelope_topic" validate:"required"`
	SubscriptionTopic string `koanf:"subscription_topic" validate:"required"`
	QueueGroup        string `koanf:"queue_group"`
}

// PipelineConfig tunes the transform stages.
type PipelineConfig struct {
	EmitInterval  time.Duration  `koanf:"emit_interval" validate:"gt=0"`
	InboxSize     int            `koanf:"inbox_size" validate:"gte=1"`
	BatchQueue    int            `koanf:"batch_queue" validate:"gte=1"`
	CameraHeightM float64        `koanf:"camera_height_m" validate:"gt=0"`
	Layers        []string       `koanf:"layers" validate:"min=1,dive,oneof=aircraft satellite ground vessel unspecified"`
	Viewport      ViewportConfig `koanf:"viewport"`
}

// ViewportConfig is the subscribed bounding box in degrees.
type ViewportConfig struct {
	MinLat float64 `koanf:"min_lat" validate:"gte=-90,lte=90"`
	MinLon float64 `koanf:"min_lon" validate:"gte=-180,lte=180"`
	MaxLat float64 `koanf:"max_lat" validate:"gte=-90,lte=90"`
	MaxLon float64 `koanf:"max_lon" validate:"gte=-180,lte=180"`
}

// SeekConfig configures the timeline coordinator and its lookup client.
// An empty Endpoint disables historical lookups.
type SeekConfig struct {
	Endpoint        string        `koanf:"endpoint" validate:"omitempty,url"`
	Debounce        time.Duration `koanf:"debounce" validate:"gt=0"`
	Lookback        time.Duration `koanf:"lookback" validate:"gt=0"`
	PlaybackWindow  time.Duration `koanf:"playback_window" validate:"gt=0"`
	TickInterval    time.Duration `koanf:"tick_interval" validate:"gt=0"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"gt=0"`
}

// LogConfig configures the zerolog root logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// MetricsConfig configures the HTTP listener for /metrics and the status
// endpoints. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `koanf:"listen" validate:"omitempty,hostname_port"`
}

// SupervisorConfig mirrors the suture restart policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			Transport:         "channel",
			NATSURL:           "nats://127.0.0.1:4222",
			EnvelopeTopic:     "tracks.envelopes",
			SubscriptionTopic: "tracks.subscriptions",
			QueueGroup:        "",
		},
		Pipeline: PipelineConfig{
			EmitInterval:  100 * time.Millisecond,
			InboxSize:     256,
			BatchQueue:    64,
			CameraHeightM: 20_000_000,
			Layers:        []string{"aircraft", "satellite", "ground", "vessel"},
			Viewport:      ViewportConfig{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180},
		},
		Seek: SeekConfig{
			Endpoint:        "",
			Debounce:        250 * time.Millisecond,
			Lookback:        time.Hour,
			PlaybackWindow:  time.Hour,
			TickInterval:    time.Second,
			RequestTimeout:  10 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Listen: "127.0.0.1:9464",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the cross-field rules the struct
// tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}

	var errs []error
	if c.Feed.Transport == "nats" && strings.TrimSpace(c.Feed.NATSURL) == "" {
		errs = append(errs, errors.New("config: feed.nats_url is required for the nats transport"))
	}
	vp := c.Pipeline.Viewport
	if vp.MinLat > vp.MaxLat {
		errs = append(errs, fmt.Errorf("config: viewport min_lat %v exceeds max_lat %v", vp.MinLat, vp.MaxLat))
	}
	if vp.MinLon == vp.MaxLon {
		errs = append(errs, errors.New("config: viewport has zero longitude span"))
	}
	return errors.Join(errs...)
}

// Kinds parses Layers. Validate has already rejected unknown tags.
func (p PipelineConfig) Kinds() ([]l1wire.Kind, error) {
	kinds := make([]l1wire.Kind, 0, len(p.Layers))
	for _, tag := range p.Layers {
		k, err := l1wire.ParseKindTag(tag)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// BBox converts the viewport to its wire form. MinLon > MaxLon denotes a
// box crossing the antimeridian and is passed through unchanged.
func (v ViewportConfig) BBox() l1wire.BBox {
	return l1wire.BBox{MinLat: v.MinLat, MinLon: v.MinLon, MaxLat: v.MaxLat, MaxLon: v.MaxLon}
}
