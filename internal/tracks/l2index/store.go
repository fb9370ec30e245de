package l2index

import (
	"errors"

	"github.com/AngelP17/HARPY-sub000/internal/metrics"
	"github.com/AngelP17/HARPY-sub000/internal/tracks/l1wire"
)

var (
	ErrEmptyID       = errors.New("l2index: delta has empty id")
	ErrNonFinite     = errors.New("l2index: delta has non-finite position")
	ErrInvalidFilter = errors.New("l2index: invalid filter")
)

// ApplyStats summarises one batch.
type ApplyStats struct {
	Applied  int
	Rejected int
}

// Store holds one TrackState per id ever seen. Entries are never evicted.
//
// Store is not safe for concurrent use: the index stage is its only owner.
type Store struct {
	states []TrackState
	byID   map[string]int
	filter FilterState
}

// NewStore returns an empty store with DefaultFilter.
func NewStore() *Store {
	return &Store{
		byID:   make(map[string]int),
		filter: DefaultFilter(),
	}
}

// Apply upserts every delta in arrival order. The last delta for an id wins
// regardless of its timestamp.
func (s *Store) Apply(deltas []l1wire.TrackDelta) ApplyStats {
	var st ApplyStats
	for i := range deltas {
		if err := s.upsert(&deltas[i]); err != nil {
			st.Rejected++
			reason := "empty_id"
			if errors.Is(err, ErrNonFinite) {
				reason = "non_finite"
			}
			metrics.DeltasRejected.WithLabelValues(reason).Inc()
			opsf("rejected delta id=%q kind=%s: %v", deltas[i].ID, deltas[i].Kind, err)
			continue
		}
		st.Applied++
	}
	metrics.DeltasApplied.Add(float64(st.Applied))
	metrics.TrackedEntities.Set(float64(len(s.states)))
	tracef("applied=%d rejected=%d tracked=%d", st.Applied, st.Rejected, len(s.states))
	return st
}

func (s *Store) upsert(d *l1wire.TrackDelta) error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if !finite(d.Position.Lat, d.Position.Lon, d.Position.Alt) {
		return ErrNonFinite
	}
	state := stateFromDelta(d)
	if i, ok := s.byID[d.ID]; ok {
		s.states[i] = state
		return nil
	}
	s.byID[d.ID] = len(s.states)
	s.states = append(s.states, state)
	return nil
}

// SetFilter replaces the filter.
func (s *Store) SetFilter(f FilterState) error {
	if err := f.Validate(); err != nil {
		return errors.Join(ErrInvalidFilter, err)
	}
	s.filter = f
	diagf("filter set: kinds=%s alt=[%v,%v] speed=[%v,%v]",
		f.AllowedKinds, f.MinAlt, f.MaxAlt, f.MinSpeed, f.MaxSpeed)
	return nil
}

// Filter returns the current filter.
func (s *Store) Filter() FilterState { return s.filter }

// Live returns a fresh slice of the states passing the filter, in
// first-seen order. The caller owns the result.
func (s *Store) Live() []TrackState {
	out := make([]TrackState, 0, len(s.states))
	for i := range s.states {
		if s.filter.Matches(&s.states[i]) {
			out = append(out, s.states[i])
		}
	}
	metrics.LiveEntities.Set(float64(len(out)))
	return out
}

// Get returns the state for id.
func (s *Store) Get(id string) (TrackState, bool) {
	i, ok := s.byID[id]
	if !ok {
		return TrackState{}, false
	}
	return s.states[i], true
}

// Len is the number of entities ever seen.
func (s *Store) Len() int { return len(s.states) }
