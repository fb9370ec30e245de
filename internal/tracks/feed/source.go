package feed

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Ingester accepts one raw envelope. pipeline.Pipeline implements it.
type Ingester interface {
	Ingest(ctx context.Context, raw []byte) error
}

// Source feeds envelopes from a topic into an Ingester. It is a
// suture.Service; a closed subscription ends Serve with an error so the
// supervisor resubscribes.
type Source struct {
	sub   message.Subscriber
	topic string
	dst   Ingester
}

// NewSource returns a Source reading topic from sub.
func NewSource(sub message.Subscriber, topic string, dst Ingester) *Source {
	return &Source{sub: sub, topic: topic, dst: dst}
}

func (s *Source) String() string { return "feed-source(" + s.topic + ")" }

// Serve consumes until ctx ends.
func (s *Source) Serve(ctx context.Context) error {
	msgs, err := s.sub.Subscribe(ctx, s.topic)
	if err != nil {
		return fmt.Errorf("feed: subscribe %s: %w", s.topic, err)
	}
	diagf("subscribed to %s", s.topic)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				opsf("subscription to %s closed", s.topic)
				return fmt.Errorf("feed: subscription to %s closed", s.topic)
			}
			if err := s.dst.Ingest(ctx, msg.Payload); err != nil {
				msg.Nack()
				return err
			}
			tracef("ingested message %s (%d bytes)", msg.UUID, len(msg.Payload))
			msg.Ack()
		}
	}
}
