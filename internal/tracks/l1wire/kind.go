package l1wire

import (
	"fmt"
	"strings"
)

// Kind classifies a tracked entity. The numeric values are the wire encoding
// and are shared with the subscription layer enum.
type Kind uint8

const (
	KindUnspecified Kind = 0
	KindAircraft    Kind = 1
	KindSatellite   Kind = 2
	KindGround      Kind = 3
	KindVessel      Kind = 4
)

// AllKinds lists every concrete kind in wire order.
var AllKinds = []Kind{KindAircraft, KindSatellite, KindGround, KindVessel}

// KindFromWire maps a wire enum value to a Kind. Values outside the known
// range are treated as unspecified.
func KindFromWire(v uint64) Kind {
	if v > uint64(KindVessel) {
		return KindUnspecified
	}
	return Kind(v)
}

func (k Kind) String() string {
	switch k {
	case KindAircraft:
		return "Aircraft"
	case KindSatellite:
		return "Satellite"
	case KindGround:
		return "Ground"
	case KindVessel:
		return "Vessel"
	default:
		return "Unspecified"
	}
}

// Tag is the lower-case token used in query strings and cluster keys.
func (k Kind) Tag() string {
	return strings.ToLower(k.String())
}

// ParseKindTag parses a tag produced by Tag.
func ParseKindTag(tag string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "aircraft":
		return KindAircraft, nil
	case "satellite":
		return KindSatellite, nil
	case "ground":
		return KindGround, nil
	case "vessel":
		return KindVessel, nil
	case "unspecified":
		return KindUnspecified, nil
	}
	return KindUnspecified, fmt.Errorf("l1wire: unknown kind tag %q", tag)
}

// Mode is the subscription time mode.
type Mode uint8

const (
	ModeUnspecified Mode = 0
	ModeLive        Mode = 1
	ModePlayback    Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModePlayback:
		return "playback"
	default:
		return "unspecified"
	}
}

var severityNames = map[uint64]string{
	0: "UNSPECIFIED",
	1: "LOW",
	2: "MEDIUM",
	3: "HIGH",
	4: "CRITICAL",
}

var alertStatusNames = map[uint64]string{
	0: "UNSPECIFIED",
	1: "ACTIVE",
	2: "ACKNOWLEDGED",
	3: "RESOLVED",
}

// SeverityName resolves an alert severity enum value to its symbolic name.
func SeverityName(v uint64) string {
	if s, ok := severityNames[v]; ok {
		return s
	}
	return "UNKNOWN"
}

// AlertStatusName resolves an alert status enum value to its symbolic name.
func AlertStatusName(v uint64) string {
	if s, ok := alertStatusNames[v]; ok {
		return s
	}
	return "UNKNOWN"
}
