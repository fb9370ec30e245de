package l2index

import (
	"fmt"
	"math"
	"strings"

	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

// KindSet is an immutable set of kinds.
type KindSet uint8

// NewKindSet returns a set holding kinds.
func NewKindSet(kinds ...l1wire.Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// AllKindSet holds every kind, including Unspecified.
var AllKindSet = NewKindSet(append([]l1wire.Kind{l1wire.KindUnspecified}, l1wire.AllKinds...)...)

// Has reports whether k is in the set.
func (s KindSet) Has(k l1wire.Kind) bool { return s&(1<<k) != 0 }

// Kinds returns the members in wire order.
func (s KindSet) Kinds() []l1wire.Kind {
	var out []l1wire.Kind
	for k := l1wire.KindUnspecified; k <= l1wire.KindVessel; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	tags := make([]string, 0, 5)
	for _, k := range s.Kinds() {
		tags = append(tags, k.Tag())
	}
	return "{" + strings.Join(tags, ",") + "}"
}

// FilterState is the admission predicate for the live set. It is replaced
// as a whole value, never mutated in place.
type FilterState struct {
	AllowedKinds KindSet
	MinAlt       float64
	MaxAlt       float64
	MinSpeed     float64
	MaxSpeed     float64
}

// DefaultFilter admits every kind at any altitude and speed.
func DefaultFilter() FilterState {
	return FilterState{
		AllowedKinds: AllKindSet,
		MinAlt:       0,
		MaxAlt:       math.Inf(1),
		MinSpeed:     0,
		MaxSpeed:     math.Inf(1),
	}
}

// Matches reports whether t passes the filter. Bounds are inclusive.
func (f FilterState) Matches(t *TrackState) bool {
	return f.AllowedKinds.Has(t.Kind) &&
		t.AltMeters >= f.MinAlt && t.AltMeters <= f.MaxAlt &&
		t.SpeedMps >= f.MinSpeed && t.SpeedMps <= f.MaxSpeed
}

// WithKinds returns a copy of f with the kind set replaced.
func (f FilterState) WithKinds(kinds KindSet) FilterState {
	f.AllowedKinds = kinds
	return f
}

// Validate rejects inverted or NaN ranges.
func (f FilterState) Validate() error {
	if math.IsNaN(f.MinAlt) || math.IsNaN(f.MaxAlt) || f.MinAlt > f.MaxAlt {
		return fmt.Errorf("l2index: invalid altitude range [%v, %v]", f.MinAlt, f.MaxAlt)
	}
	if math.IsNaN(f.MinSpeed) || math.IsNaN(f.MaxSpeed) || f.MinSpeed > f.MaxSpeed {
		return fmt.Errorf("l2index: invalid speed range [%v, %v]", f.MinSpeed, f.MaxSpeed)
	}
	return nil
}
