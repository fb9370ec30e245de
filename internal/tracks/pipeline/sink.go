package pipeline

import (
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

// EventSink receives every decoded event that is not a track batch.
// HandleEvent runs on the decode stage goroutine and must not block.
type EventSink interface {
	HandleEvent(ev l1wire.Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ev l1wire.Event)

func (f EventSinkFunc) HandleEvent(ev l1wire.Event) { f(ev) }

// LogSink logs events to the pipeline streams.
type LogSink struct{}

func (LogSink) HandleEvent(ev l1wire.Event) {
	switch e := ev.(type) {
	case *l1wire.AlertEvent:
		diagf("alert id=%s severity=%s status=%s title=%q evidence=%d",
			e.ID, e.Severity, e.Status, e.Title, len(e.EvidenceLinkIDs))
	case *l1wire.ProviderHealthEvent:
		if !e.Online || e.Error != "" {
			opsf("provider %s offline=%t error=%q latency=%dms", e.ProviderID, !e.Online, e.Error, e.LatencyMs)
			return
		}
		tracef("provider %s entities=%d latency=%dms", e.ProviderID, e.EntityCount, e.LatencyMs)
	case *l1wire.SubscriptionAckEvent:
		if !e.Accepted {
			opsf("subscription %s rejected: %s", e.SubscriptionID, e.Message)
			return
		}
		diagf("subscription %s accepted", e.SubscriptionID)
	default:
		tracef("event %s", ev.Type())
	}
}
