package l1wire

import (
	"fmt"

	"github.com/AngelP17/HARPY-sub000/internal/timeutil"
)

// EventType tags a decoded Event.
type EventType int

const (
	EventTrackBatch EventType = iota + 1
	EventAlert
	EventProviderHealth
	EventSnapshot
	EventLink
	EventSubscriptionAck
)

func (t EventType) String() string {
	switch t {
	case EventTrackBatch:
		return "track_batch"
	case EventAlert:
		return "alert"
	case EventProviderHealth:
		return "provider_health"
	case EventSnapshot:
		return "snapshot"
	case EventLink:
		return "link"
	case EventSubscriptionAck:
		return "subscription_ack"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Header carries the envelope fields common to every event.
type Header struct {
	SchemaVersion string
	ServerTsMs    uint64
}

// Event is the typed output of the decoder.
type Event interface {
	Type() EventType
	EnvelopeHeader() Header
}

// TrackBatchEvent carries deltas for the track index.
type TrackBatchEvent struct {
	Header
	Deltas []TrackDelta
}

// AlertEvent is an alert with its enums resolved to symbolic names.
type AlertEvent struct {
	Header
	ID              string
	Severity        string
	Status          string
	Title           string
	Description     string
	TsMs            uint64
	EvidenceLinkIDs []string
}

// ProviderHealthEvent reports provider health. LatencyMs is derived at
// decode time from the last successful fetch, never transmitted.
type ProviderHealthEvent struct {
	Header
	ProviderID      string
	Online          bool
	LastSuccessTsMs uint64
	LatencyMs       uint64
	Error           string
	EntityCount     uint32
}

// SnapshotEvent announces a server snapshot.
type SnapshotEvent struct {
	Header
	SnapshotMeta
}

// LinkEvent announces a link between two ids.
type LinkEvent struct {
	Header
	LinkUpsert
}

// SubscriptionAckEvent acknowledges a subscription request.
type SubscriptionAckEvent struct {
	Header
	SubscriptionAck
}

func (e *TrackBatchEvent) Type() EventType      { return EventTrackBatch }
func (e *AlertEvent) Type() EventType           { return EventAlert }
func (e *ProviderHealthEvent) Type() EventType  { return EventProviderHealth }
func (e *SnapshotEvent) Type() EventType        { return EventSnapshot }
func (e *LinkEvent) Type() EventType            { return EventLink }
func (e *SubscriptionAckEvent) Type() EventType { return EventSubscriptionAck }

// EnvelopeHeader returns the envelope header the event was decoded from.
func (h Header) EnvelopeHeader() Header { return h }

// Decoder turns raw envelopes into events.
type Decoder struct {
	clock timeutil.Clock
}

// NewDecoder returns a Decoder. A nil clock uses the wall clock.
func NewDecoder(clock timeutil.Clock) *Decoder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Decoder{clock: clock}
}

// Decode decodes exactly one envelope. Subscription requests are
// client-to-server only and yield ErrIgnoredPayload.
func (d *Decoder) Decode(raw []byte) (Event, error) {
	env, err := Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	h := Header{SchemaVersion: env.SchemaVersion, ServerTsMs: env.ServerTsMs}

	switch p := env.Payload.(type) {
	case *TrackDeltaBatch:
		return &TrackBatchEvent{Header: h, Deltas: p.Deltas}, nil
	case *AlertUpsert:
		return &AlertEvent{
			Header:          h,
			ID:              p.ID,
			Severity:        SeverityName(p.Severity),
			Status:          AlertStatusName(p.Status),
			Title:           p.Title,
			Description:     p.Description,
			TsMs:            p.TsMs,
			EvidenceLinkIDs: p.EvidenceLinkIDs,
		}, nil
	case *ProviderStatus:
		return &ProviderHealthEvent{
			Header:          h,
			ProviderID:      p.ProviderID,
			Online:          p.Online,
			LastSuccessTsMs: p.LastSuccessTsMs,
			LatencyMs:       latencyMs(d.clock.Now().UnixMilli(), p.LastSuccessTsMs),
			Error:           p.Error,
			EntityCount:     p.EntityCount,
		}, nil
	case *SnapshotMeta:
		return &SnapshotEvent{Header: h, SnapshotMeta: *p}, nil
	case *LinkUpsert:
		return &LinkEvent{Header: h, LinkUpsert: *p}, nil
	case *SubscriptionAck:
		return &SubscriptionAckEvent{Header: h, SubscriptionAck: *p}, nil
	case *SubscriptionRequest:
		return nil, ErrIgnoredPayload
	}
	return nil, fmt.Errorf("l1wire: unhandled payload %T", env.Payload)
}

// latencyMs is now minus the last success, or 0 when there has been no
// success yet or the provider clock is ahead of ours.
func latencyMs(nowMs int64, lastSuccessMs uint64) uint64 {
	if lastSuccessMs == 0 || nowMs <= 0 || uint64(nowMs) < lastSuccessMs {
		return 0
	}
	return uint64(nowMs) - lastSuccessMs
}
