package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/AngelP17/HARPY-sub000/internal/monitoring"
)

// Transport names accepted by Build.
const (
	TransportChannel = "channel"
	TransportNATS    = "nats"
)

// ErrUnknownTransport is returned by Build for an unsupported name.
var ErrUnknownTransport = errors.New("feed: unknown transport")

// Config selects and addresses the transport.
type Config struct {
	Transport         string
	NATSURL           string
	EnvelopeTopic     string
	SubscriptionTopic string
	QueueGroup        string
}

// Transport is a publisher/subscriber pair.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close closes both halves. A gochannel pubsub serves as both and is
// closed once.
func (t Transport) Close() error {
	var errs []error
	if t.Subscriber != nil {
		errs = append(errs, t.Subscriber.Close())
	}
	if t.Publisher != nil && any(t.Publisher) != any(t.Subscriber) {
		errs = append(errs, t.Publisher.Close())
	}
	return errors.Join(errs...)
}

// Logger adapts the process logger for watermill.
func Logger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(monitoring.NewSlogLogger())
}

// Build creates the configured transport.
func Build(cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
	if logger == nil {
		logger = Logger()
	}
	switch cfg.Transport {
	case TransportChannel, "":
		return NewChannelTransport(logger), nil
	case TransportNATS:
		return NewNATSTransport(cfg, logger)
	default:
		return Transport{}, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
}

// NewChannelTransport returns an in-process pubsub. Publish blocks until
// the subscriber has taken the message, which carries the pipeline's inbox
// backpressure back to the producer.
func NewChannelTransport(logger watermill.LoggerAdapter) Transport {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: true,
	}, logger)
	return Transport{Publisher: ps, Subscriber: ps}
}

// NewNATSTransport connects to NATS core. Track envelopes are a live
// stream, so JetStream persistence is disabled.
func NewNATSTransport(cfg Config, logger watermill.LoggerAdapter) (Transport, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("trackview"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				opsf("nats disconnected: %v", err)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			diagf("nats reconnected to %s", nc.ConnectedUrl())
		}),
	}
	marshaler := &wmnats.NATSMarshaler{}

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   marshaler,
		JetStream:   wmnats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("feed: create nats publisher: %w", err)
	}

	sub, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		CloseTimeout:     5 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      marshaler,
		JetStream:        wmnats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return Transport{}, fmt.Errorf("feed: create nats subscriber: %w", err)
	}
	return Transport{Publisher: pub, Subscriber: sub}, nil
}
