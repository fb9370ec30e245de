package l2index

import (
	"math"

	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

// MaxAbsLat is the latitude clamp. The poles themselves are excluded so
// downstream projections never see a singular point.
const MaxAbsLat = 89.999

// TrackState is the latest known state of one entity.
type TrackState struct {
	ID           string
	ProviderID   string
	Kind         l1wire.Kind
	Lat          float64 // [-89.999, 89.999]
	Lon          float64 // (-180, 180]
	AltMeters    float64 // >= 0
	HeadingDeg   float64 // [0, 360)
	SpeedMps     float64 // >= 0
	ColorRGBA    uint32  // 0xRRGGBBAA
	LastUpdateMs uint64
}

// Kind colours, packed 0xRRGGBBAA.
const (
	ColorAircraft    uint32 = 0x4FC3F7FF
	ColorSatellite   uint32 = 0xFFB74DFF
	ColorGround      uint32 = 0x81C784FF
	ColorVessel      uint32 = 0xBA68C8FF
	ColorUnspecified uint32 = 0xB0BEC5FF
)

// KindColor returns the fixed display colour for a kind.
func KindColor(k l1wire.Kind) uint32 {
	switch k {
	case l1wire.KindAircraft:
		return ColorAircraft
	case l1wire.KindSatellite:
		return ColorSatellite
	case l1wire.KindGround:
		return ColorGround
	case l1wire.KindVessel:
		return ColorVessel
	default:
		return ColorUnspecified
	}
}

// NormalizeLat clamps lat to [-MaxAbsLat, MaxAbsLat].
func NormalizeLat(lat float64) float64 {
	return math.Max(-MaxAbsLat, math.Min(MaxAbsLat, lat))
}

// NormalizeLon wraps lon into (-180, 180]. -180 maps to +180.
func NormalizeLon(lon float64) float64 {
	l := math.Mod(lon+180, 360)
	if l < 0 {
		l += 360
	}
	l -= 180
	if l <= -180 {
		l = 180
	}
	return l
}

// NormalizeHeading wraps deg into [0, 360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// stateFromDelta builds the normalised state for d. Non-finite heading or
// speed are treated as zero; non-finite positions are rejected earlier.
func stateFromDelta(d *l1wire.TrackDelta) TrackState {
	heading, speed := d.Heading, d.Speed
	if !finite(heading) {
		heading = 0
	}
	if !finite(speed) {
		speed = 0
	}
	return TrackState{
		ID:           d.ID,
		ProviderID:   d.ProviderID,
		Kind:         d.Kind,
		Lat:          NormalizeLat(d.Position.Lat),
		Lon:          NormalizeLon(d.Position.Lon),
		AltMeters:    nonNegative(d.Position.Alt),
		HeadingDeg:   NormalizeHeading(heading),
		SpeedMps:     nonNegative(speed),
		ColorRGBA:    KindColor(d.Kind),
		LastUpdateMs: d.TsMs,
	}
}
