// Package l2index owns Layer 2 (Index) of the track stream model.
//
// Responsibilities: the authoritative latest-known state per entity id,
// coordinate normalisation, kind colours, and the admission filter that
// produces the live set handed to clustering.
// Key types: TrackState, FilterState, KindSet, Store.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
package l2index
