package l2index

import (
	"math"
	"testing"

	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

func TestNormalizeLon(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{-180, 180},
		{180, 180},
		{179.5, 179.5},
		{-179.5, -179.5},
		{190, -170},
		{-190, 170},
		{540, 180},
		{-540, 180},
		{725, 5},
	}
	for _, tt := range tests {
		if got := NormalizeLon(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("NormalizeLon(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLon_Range(t *testing.T) {
	for lon := -1000.0; lon <= 1000; lon += 0.37 {
		got := NormalizeLon(lon)
		if got <= -180 || got > 180 {
			t.Fatalf("NormalizeLon(%v) = %v out of (-180, 180]", lon, got)
		}
	}
}

func TestNormalizeLat(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{90, MaxAbsLat},
		{-90, -MaxAbsLat},
		{1e6, MaxAbsLat},
		{-45.5, -45.5},
		{89.999, 89.999},
	}
	for _, tt := range tests {
		if got := NormalizeLat(tt.in); got != tt.want {
			t.Errorf("NormalizeLat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeHeading(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{-90, 270},
		{450, 90},
		{359.5, 359.5},
	}
	for _, tt := range tests {
		if got := NormalizeHeading(tt.in); got != tt.want {
			t.Errorf("NormalizeHeading(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestKindColor_DistinctAndOpaque(t *testing.T) {
	seen := map[uint32]l1wire.Kind{}
	for _, k := range append([]l1wire.Kind{l1wire.KindUnspecified}, l1wire.AllKinds...) {
		c := KindColor(k)
		if c&0xFF != 0xFF {
			t.Errorf("colour for %s is not opaque: %#08x", k, c)
		}
		if other, dup := seen[c]; dup {
			t.Errorf("%s and %s share colour %#08x", k, other, c)
		}
		seen[c] = k
	}
	if KindColor(l1wire.Kind(9)) != ColorUnspecified {
		t.Error("unknown kind should use the neutral colour")
	}
}

func TestKindSet(t *testing.T) {
	s := NewKindSet(l1wire.KindVessel, l1wire.KindAircraft)
	if !s.Has(l1wire.KindAircraft) || !s.Has(l1wire.KindVessel) || s.Has(l1wire.KindGround) {
		t.Errorf("unexpected membership for %s", s)
	}
	if got := s.String(); got != "{aircraft,vessel}" {
		t.Errorf("String() = %q", got)
	}
	for _, k := range []l1wire.Kind{l1wire.KindUnspecified, l1wire.KindAircraft, l1wire.KindSatellite, l1wire.KindGround, l1wire.KindVessel} {
		if !AllKindSet.Has(k) {
			t.Errorf("AllKindSet missing %s", k)
		}
	}
}

func TestFilterState_BoundsInclusive(t *testing.T) {
	f := FilterState{AllowedKinds: AllKindSet, MinAlt: 100, MaxAlt: 200, MinSpeed: 0, MaxSpeed: 50}
	for _, tt := range []struct {
		alt, speed float64
		want       bool
	}{
		{100, 0, true},
		{200, 50, true},
		{99.9, 10, false},
		{150, 50.1, false},
	} {
		ts := TrackState{Kind: l1wire.KindAircraft, AltMeters: tt.alt, SpeedMps: tt.speed}
		if got := f.Matches(&ts); got != tt.want {
			t.Errorf("Matches(alt=%v, speed=%v) = %v, want %v", tt.alt, tt.speed, got, tt.want)
		}
	}
}
