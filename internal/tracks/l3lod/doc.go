// Package l3lod owns Layer 3 (Level of Detail) of the track stream model.
//
// Responsibilities: mapping camera height to a LodState, bucketing the live
// set on a lat/lon grid by kind, synthesising cluster entities for buckets
// with more than one member, and thinning the remaining singles by stride.
// Key types: LodState, RenderEntity.
//
// Dependency rule: L3 may depend on L1 and L2, but never on L4+.
package l3lod
