package l1wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// skipField tells walkFields to skip the current field.
const skipField = -1

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walkFields iterates the fields of one message. fn returns how many bytes
// of b it consumed, or skipField for fields it does not know.
func walkFields(msg string, b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return &DecodeError{Message: msg, Err: protowire.ParseError(n)}
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				return err
			}
			return &DecodeError{Message: msg, Field: num, Err: err}
		}
		if m == skipField {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return &DecodeError{Message: msg, Field: num, Err: protowire.ParseError(m)}
			}
		}
		b = b[m:]
	}
	return nil
}

func checkType(got, want protowire.Type) error {
	if got != want {
		return fmt.Errorf("%w: got %d, want %d", ErrWireType, got, want)
	}
	return nil
}

func readVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if err := checkType(typ, protowire.VarintType); err != nil {
		return 0, 0, err
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func readDouble(typ protowire.Type, b []byte) (float64, int, error) {
	if err := checkType(typ, protowire.Fixed64Type); err != nil {
		return 0, 0, err
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), n, nil
}

func readBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if err := checkType(typ, protowire.BytesType); err != nil {
		return nil, 0, err
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func readString(typ protowire.Type, b []byte) (string, int, error) {
	v, n, err := readBytes(typ, b)
	return string(v), n, err
}

// Unmarshal decodes one envelope. It never returns a partially populated
// envelope alongside an error.
func Unmarshal(raw []byte) (Envelope, error) {
	if len(raw) == 0 {
		return Envelope{}, ErrEmpty
	}

	var env Envelope
	err := walkFields("Envelope", raw, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case fieldSchemaVersion:
			v, n, err := readString(typ, b)
			env.SchemaVersion = v
			return n, err
		case fieldServerTs:
			v, n, err := readVarint(typ, b)
			env.ServerTsMs = v
			return n, err
		case fieldTrackDeltaBatch, fieldAlertUpsert, fieldProviderStatus, fieldSnapshotMeta,
			fieldLinkUpsert, fieldSubscriptionRequest, fieldSubscriptionAck:
			body, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			p, err := decodePayload(num, body)
			if err != nil {
				return 0, err
			}
			// oneof: the last payload on the wire wins
			env.Payload = p
			return n, nil
		}
		return skipField, nil
	})
	if err != nil {
		return Envelope{}, err
	}
	if env.Payload == nil {
		return Envelope{}, ErrNoPayload
	}
	return env, nil
}

func decodePayload(num protowire.Number, b []byte) (Payload, error) {
	switch num {
	case fieldTrackDeltaBatch:
		return decodeTrackDeltaBatch(b)
	case fieldAlertUpsert:
		return decodeAlertUpsert(b)
	case fieldProviderStatus:
		return decodeProviderStatus(b)
	case fieldSnapshotMeta:
		return decodeSnapshotMeta(b)
	case fieldLinkUpsert:
		return decodeLinkUpsert(b)
	case fieldSubscriptionRequest:
		return decodeSubscriptionRequest(b)
	case fieldSubscriptionAck:
		return decodeSubscriptionAck(b)
	}
	return nil, fmt.Errorf("l1wire: no payload for field %d", num)
}

func decodeTrackDeltaBatch(b []byte) (*TrackDeltaBatch, error) {
	batch := &TrackDeltaBatch{}
	err := walkFields("TrackDeltaBatch", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skipField, nil
		}
		body, n, err := readBytes(typ, b)
		if err != nil {
			return 0, err
		}
		d, err := decodeTrackDelta(body)
		if err != nil {
			return 0, err
		}
		batch.Deltas = append(batch.Deltas, d)
		return n, nil
	})
	return batch, err
}

func decodeTrackDelta(b []byte) (TrackDelta, error) {
	var d TrackDelta
	err := walkFields("TrackDelta", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := readString(typ, b)
			d.ID = v
			return n, err
		case 2:
			v, n, err := readVarint(typ, b)
			d.Kind = KindFromWire(v)
			return n, err
		case 3:
			body, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			p, err := decodePosition(body)
			d.Position = p
			return n, err
		case 4:
			v, n, err := readDouble(typ, b)
			d.Heading = v
			return n, err
		case 5:
			v, n, err := readDouble(typ, b)
			d.Speed = v
			return n, err
		case 6:
			v, n, err := readVarint(typ, b)
			d.TsMs = v
			return n, err
		case 7:
			v, n, err := readString(typ, b)
			d.ProviderID = v
			return n, err
		case 8:
			body, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			k, v, err := decodeMapEntry(body)
			if err != nil {
				return 0, err
			}
			if d.Meta == nil {
				d.Meta = make(map[string]string)
			}
			d.Meta[k] = v
			return n, nil
		}
		return skipField, nil
	})
	return d, err
}

func decodePosition(b []byte) (Position, error) {
	var p Position
	err := walkFields("Position", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var dst *float64
		switch num {
		case 1:
			dst = &p.Lat
		case 2:
			dst = &p.Lon
		case 3:
			dst = &p.Alt
		default:
			return skipField, nil
		}
		v, n, err := readDouble(typ, b)
		*dst = v
		return n, err
	})
	return p, err
}

func decodeMapEntry(b []byte) (string, string, error) {
	var key, value string
	err := walkFields("MetaEntry", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := readString(typ, b)
			key = v
			return n, err
		case 2:
			v, n, err := readString(typ, b)
			value = v
			return n, err
		}
		return skipField, nil
	})
	return key, value, err
}

func decodeAlertUpsert(b []byte) (*AlertUpsert, error) {
	a := &AlertUpsert{}
	err := walkFields("AlertUpsert", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := readString(typ, b)
			a.ID = v
			return n, err
		case 2:
			v, n, err := readVarint(typ, b)
			a.Severity = v
			return n, err
		case 3:
			v, n, err := readVarint(typ, b)
			a.Status = v
			return n, err
		case 4:
			v, n, err := readString(typ, b)
			a.Title = v
			return n, err
		case 5:
			v, n, err := readString(typ, b)
			a.Description = v
			return n, err
		case 6:
			v, n, err := readVarint(typ, b)
			a.TsMs = v
			return n, err
		case 7:
			v, n, err := readString(typ, b)
			if err == nil {
				a.EvidenceLinkIDs = append(a.EvidenceLinkIDs, v)
			}
			return n, err
		}
		return skipField, nil
	})
	return a, err
}

func decodeProviderStatus(b []byte) (*ProviderStatus, error) {
	s := &ProviderStatus{}
	err := walkFields("ProviderStatus", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := readString(typ, b)
			s.ProviderID = v
			return n, err
		case 2:
			v, n, err := readVarint(typ, b)
			s.Online = protowire.DecodeBool(v)
			return n, err
		case 3:
			v, n, err := readVarint(typ, b)
			s.LastSuccessTsMs = v
			return n, err
		case 4:
			v, n, err := readString(typ, b)
			s.Error = v
			return n, err
		case 5:
			v, n, err := readVarint(typ, b)
			s.EntityCount = uint32(v)
			return n, err
		}
		return skipField, nil
	})
	return s, err
}

func decodeSnapshotMeta(b []byte) (*SnapshotMeta, error) {
	s := &SnapshotMeta{}
	err := walkFields("SnapshotMeta", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := readString(typ, b)
			s.SnapshotID = v
			return n, err
		case 2:
			v, n, err := readVarint(typ, b)
			s.StartTsMs = v
			return n, err
		case 3:
			v, n, err := readVarint(typ, b)
			s.EndTsMs = v
			return n, err
		case 4:
			v, n, err := readVarint(typ, b)
			s.DeltaCount = v
			return n, err
		}
		return skipField, nil
	})
	return s, err
}

func decodeLinkUpsert(b []byte) (*LinkUpsert, error) {
	l := &LinkUpsert{}
	err := walkFields("LinkUpsert", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var dst *string
		switch num {
		case 1:
			dst = &l.ID
		case 2:
			dst = &l.FromID
		case 3:
			dst = &l.ToID
		case 4:
			dst = &l.Relation
		case 5:
			v, n, err := readVarint(typ, b)
			l.TsMs = v
			return n, err
		default:
			return skipField, nil
		}
		v, n, err := readString(typ, b)
		*dst = v
		return n, err
	})
	return l, err
}

func decodeSubscriptionRequest(b []byte) (*SubscriptionRequest, error) {
	r := &SubscriptionRequest{}
	err := walkFields("SubscriptionRequest", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			body, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			bbox, err := decodeBBox(body)
			r.Viewport = bbox
			return n, err
		case 2:
			return readLayers(typ, b, &r.Layers)
		case 3:
			_, n, err := readBytes(typ, b)
			r.TimeRange = TimeRange{}
			return n, err
		case 4:
			body, n, err := readBytes(typ, b)
			if err != nil {
				return 0, err
			}
			pr, err := decodePlaybackRange(body)
			r.TimeRange = TimeRange{Playback: pr}
			return n, err
		case 5:
			v, n, err := readVarint(typ, b)
			r.Mode = Mode(v)
			return n, err
		}
		return skipField, nil
	})
	return r, err
}

// readLayers accepts both packed and unpacked repeated enums.
func readLayers(typ protowire.Type, b []byte, dst *[]Kind) (int, error) {
	if typ == protowire.VarintType {
		v, n, err := readVarint(typ, b)
		if err == nil {
			*dst = append(*dst, KindFromWire(v))
		}
		return n, err
	}
	packed, n, err := readBytes(typ, b)
	if err != nil {
		return 0, err
	}
	for len(packed) > 0 {
		v, m := protowire.ConsumeVarint(packed)
		if m < 0 {
			return 0, protowire.ParseError(m)
		}
		*dst = append(*dst, KindFromWire(v))
		packed = packed[m:]
	}
	return n, nil
}

func decodeBBox(b []byte) (BBox, error) {
	var box BBox
	err := walkFields("BBox", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var dst *float64
		switch num {
		case 1:
			dst = &box.MinLat
		case 2:
			dst = &box.MinLon
		case 3:
			dst = &box.MaxLat
		case 4:
			dst = &box.MaxLon
		default:
			return skipField, nil
		}
		v, n, err := readDouble(typ, b)
		*dst = v
		return n, err
	})
	return box, err
}

func decodePlaybackRange(b []byte) (*PlaybackRange, error) {
	pr := &PlaybackRange{}
	err := walkFields("PlaybackRange", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := readVarint(typ, b)
			pr.StartTsMs = v
			return n, err
		case 2:
			v, n, err := readVarint(typ, b)
			pr.EndTsMs = v
			return n, err
		}
		return skipField, nil
	})
	return pr, err
}

func decodeSubscriptionAck(b []byte) (*SubscriptionAck, error) {
	a := &SubscriptionAck{}
	err := walkFields("SubscriptionAck", b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := readString(typ, b)
			a.SubscriptionID = v
			return n, err
		case 2:
			v, n, err := readVarint(typ, b)
			a.Accepted = protowire.DecodeBool(v)
			return n, err
		case 3:
			v, n, err := readString(typ, b)
			a.Message = v
			return n, err
		}
		return skipField, nil
	})
	return a, err
}
