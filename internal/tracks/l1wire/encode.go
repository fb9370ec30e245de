package l1wire

import (
	"math"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal encodes an envelope. Zero scalar fields are omitted; the payload
// field is always written so its presence survives a round trip.
func Marshal(env Envelope) ([]byte, error) {
	if env.Payload == nil {
		return nil, ErrNilPayload
	}
	var b []byte
	b = appendString(b, fieldSchemaVersion, env.SchemaVersion)
	b = appendVarint(b, fieldServerTs, env.ServerTsMs)
	b = appendMessage(b, env.Payload.fieldNumber(), env.Payload.appendFields(nil))
	return b, nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

func (p *TrackDeltaBatch) appendFields(b []byte) []byte {
	for i := range p.Deltas {
		b = appendMessage(b, 1, p.Deltas[i].appendFields(nil))
	}
	return b
}

func (d *TrackDelta) appendFields(b []byte) []byte {
	b = appendString(b, 1, d.ID)
	b = appendVarint(b, 2, uint64(d.Kind))
	b = appendMessage(b, 3, d.Position.appendFields(nil))
	b = appendDouble(b, 4, d.Heading)
	b = appendDouble(b, 5, d.Speed)
	b = appendVarint(b, 6, d.TsMs)
	b = appendString(b, 7, d.ProviderID)

	// Sorted for a deterministic encoding.
	keys := make([]string, 0, len(d.Meta))
	for k := range d.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = appendString(entry, 1, k)
		entry = appendString(entry, 2, d.Meta[k])
		b = appendMessage(b, 8, entry)
	}
	return b
}

func (p Position) appendFields(b []byte) []byte {
	b = appendDouble(b, 1, p.Lat)
	b = appendDouble(b, 2, p.Lon)
	return appendDouble(b, 3, p.Alt)
}

func (a *AlertUpsert) appendFields(b []byte) []byte {
	b = appendString(b, 1, a.ID)
	b = appendVarint(b, 2, a.Severity)
	b = appendVarint(b, 3, a.Status)
	b = appendString(b, 4, a.Title)
	b = appendString(b, 5, a.Description)
	b = appendVarint(b, 6, a.TsMs)
	for _, id := range a.EvidenceLinkIDs {
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendString(b, id)
	}
	return b
}

func (s *ProviderStatus) appendFields(b []byte) []byte {
	b = appendString(b, 1, s.ProviderID)
	b = appendBool(b, 2, s.Online)
	b = appendVarint(b, 3, s.LastSuccessTsMs)
	b = appendString(b, 4, s.Error)
	return appendVarint(b, 5, uint64(s.EntityCount))
}

func (s *SnapshotMeta) appendFields(b []byte) []byte {
	b = appendString(b, 1, s.SnapshotID)
	b = appendVarint(b, 2, s.StartTsMs)
	b = appendVarint(b, 3, s.EndTsMs)
	return appendVarint(b, 4, s.DeltaCount)
}

func (l *LinkUpsert) appendFields(b []byte) []byte {
	b = appendString(b, 1, l.ID)
	b = appendString(b, 2, l.FromID)
	b = appendString(b, 3, l.ToID)
	b = appendString(b, 4, l.Relation)
	return appendVarint(b, 5, l.TsMs)
}

func (r *SubscriptionRequest) appendFields(b []byte) []byte {
	var bbox []byte
	bbox = appendDouble(bbox, 1, r.Viewport.MinLat)
	bbox = appendDouble(bbox, 2, r.Viewport.MinLon)
	bbox = appendDouble(bbox, 3, r.Viewport.MaxLat)
	bbox = appendDouble(bbox, 4, r.Viewport.MaxLon)
	b = appendMessage(b, 1, bbox)

	if len(r.Layers) > 0 {
		var packed []byte
		for _, k := range r.Layers {
			packed = protowire.AppendVarint(packed, uint64(k))
		}
		b = appendMessage(b, 2, packed)
	}

	if r.TimeRange.IsLive() {
		b = appendMessage(b, 3, nil)
	} else {
		var pr []byte
		pr = appendVarint(pr, 1, r.TimeRange.Playback.StartTsMs)
		pr = appendVarint(pr, 2, r.TimeRange.Playback.EndTsMs)
		b = appendMessage(b, 4, pr)
	}
	return appendVarint(b, 5, uint64(r.Mode))
}

func (a *SubscriptionAck) appendFields(b []byte) []byte {
	b = appendString(b, 1, a.SubscriptionID)
	b = appendBool(b, 2, a.Accepted)
	return appendString(b, 3, a.Message)
}
