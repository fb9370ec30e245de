package l1wire

import "google.golang.org/protobuf/encoding/protowire"

// SchemaVersion is stamped on envelopes this module produces.
const SchemaVersion = "1.0"

// Envelope is one wire message wrapping exactly one payload.
type Envelope struct {
	SchemaVersion string
	ServerTsMs    uint64
	Payload       Payload
}

// Payload is the oneof body of an Envelope. The concrete types below are
// the only implementations.
type Payload interface {
	fieldNumber() protowire.Number
	appendFields(b []byte) []byte
}

// Envelope field numbers.
const (
	fieldSchemaVersion       protowire.Number = 1
	fieldServerTs            protowire.Number = 2
	fieldTrackDeltaBatch     protowire.Number = 10
	fieldAlertUpsert         protowire.Number = 11
	fieldProviderStatus      protowire.Number = 12
	fieldSnapshotMeta        protowire.Number = 13
	fieldLinkUpsert          protowire.Number = 14
	fieldSubscriptionRequest protowire.Number = 15
	fieldSubscriptionAck     protowire.Number = 16
)

// Position is a geodetic position; altitude is metres above the ellipsoid.
type Position struct {
	Lat float64
	Lon float64
	Alt float64
}

// TrackDelta is one entity's updated position and kinematics.
type TrackDelta struct {
	ID         string
	Kind       Kind
	Position   Position
	Heading    float64
	Speed      float64
	TsMs       uint64
	ProviderID string
	Meta       map[string]string
}

// TrackDeltaBatch carries deltas in arrival order.
type TrackDeltaBatch struct {
	Deltas []TrackDelta
}

// AlertUpsert is the wire form of an alert. Severity and Status are raw
// enum values; the decoder resolves them to names.
type AlertUpsert struct {
	ID              string
	Severity        uint64
	Status          uint64
	Title           string
	Description     string
	TsMs            uint64
	EvidenceLinkIDs []string
}

// ProviderStatus reports the health of one upstream provider.
type ProviderStatus struct {
	ProviderID      string
	Online          bool
	LastSuccessTsMs uint64
	Error           string
	EntityCount     uint32
}

// SnapshotMeta announces a server-side snapshot covering a time range.
type SnapshotMeta struct {
	SnapshotID string
	StartTsMs  uint64
	EndTsMs    uint64
	DeltaCount uint64
}

// LinkUpsert relates two entities or an entity and an alert.
type LinkUpsert struct {
	ID       string
	FromID   string
	ToID     string
	Relation string
	TsMs     uint64
}

// BBox is a lat/lon bounding box.
type BBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// PlaybackRange is a bounded historical range in epoch milliseconds.
type PlaybackRange struct {
	StartTsMs uint64
	EndTsMs   uint64
}

// TimeRange is live (Playback == nil) or a bounded playback range.
type TimeRange struct {
	Playback *PlaybackRange
}

// IsLive reports whether the range is open-ended.
func (r TimeRange) IsLive() bool { return r.Playback == nil }

// SubscriptionRequest tells the upstream feed what to send.
type SubscriptionRequest struct {
	Viewport  BBox
	Layers    []Kind
	TimeRange TimeRange
	Mode      Mode
}

// SubscriptionAck is the server's reply to a SubscriptionRequest.
type SubscriptionAck struct {
	SubscriptionID string
	Accepted       bool
	Message        string
}

func (*TrackDeltaBatch) fieldNumber() protowire.Number     { return fieldTrackDeltaBatch }
func (*AlertUpsert) fieldNumber() protowire.Number         { return fieldAlertUpsert }
func (*ProviderStatus) fieldNumber() protowire.Number      { return fieldProviderStatus }
func (*SnapshotMeta) fieldNumber() protowire.Number        { return fieldSnapshotMeta }
func (*LinkUpsert) fieldNumber() protowire.Number          { return fieldLinkUpsert }
func (*SubscriptionRequest) fieldNumber() protowire.Number { return fieldSubscriptionRequest }
func (*SubscriptionAck) fieldNumber() protowire.Number     { return fieldSubscriptionAck }
