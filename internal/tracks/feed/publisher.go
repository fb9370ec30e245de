package feed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/AngelP17/HARPY-sub000/internal/timeutil"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

// Metadata keys set on published messages.
const (
	MetaPayload = "payload"
	MetaMode    = "mode"
	MetaTsMs    = "ts_ms"
)

// Publisher sends SubscriptionRequests upstream.
type Publisher struct {
	pub   message.Publisher
	topic string
	clock timeutil.Clock
}

// NewPublisher returns a Publisher writing to topic. A nil clock uses the
// wall clock.
func NewPublisher(pub message.Publisher, topic string, clock timeutil.Clock) *Publisher {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Publisher{pub: pub, topic: topic, clock: clock}
}

// PublishSubscription encodes req in an envelope and publishes it.
func (p *Publisher) PublishSubscription(ctx context.Context, req l1wire.SubscriptionRequest) error {
	now := uint64(p.clock.Now().UnixMilli())
	body, err := l1wire.Marshal(l1wire.Envelope{
		SchemaVersion: l1wire.SchemaVersion,
		ServerTsMs:    now,
		Payload:       &req,
	})
	if err != nil {
		return fmt.Errorf("feed: encode subscription: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), body)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetaPayload, "subscription_request")
	msg.Metadata.Set(MetaMode, req.Mode.String())
	msg.Metadata.Set(MetaTsMs, strconv.FormatUint(now, 10))

	if err := p.pub.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("feed: publish subscription to %s: %w", p.topic, err)
	}
	diagf("published %s subscription %s (%d layers)", req.Mode, msg.UUID, len(req.Layers))
	return nil
}
