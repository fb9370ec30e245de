// Package pipeline runs the track stream model as supervised stages.
//
// Each layer runs in its own stage goroutine and owns its state:
//
//	raw envelopes → DecodeStage → IndexStage → ClusterStage → PackStage → Payloads()
//
// Decoded batches travel on a bounded channel so no delta is lost. Every
// later hop is a Latest mailbox: a slow consumer only ever sees the newest
// value. IndexStage and ClusterStage throttle their output to one emission
// per interval, and a filter or LOD change bypasses the throttle.
//
// Stages implement suture.Service. A panicking stage is restarted by its
// supervisor without losing the state held by the others.
package pipeline
