// Package l4pack owns Layer 4 (Pack) of the track stream model.
//
// Responsibilities: shaping the post-LOD entity list into parallel
// fixed-width arrays for the renderer. No filtering or reordering happens
// here. Key types: RenderPayload.
//
// Dependency rule: L4 may depend on L1–L3, but never on the pipeline.
package l4pack
