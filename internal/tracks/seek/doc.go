// Package seek coordinates what the upstream feed serves.
//
// The Coordinator is a small timeline state machine. In live mode it keeps
// an open-ended subscription and follows the wall clock. Pausing or
// scrubbing switches to playback: the subscription becomes a bounded
// window ending at the chosen instant, and once scrubbing has settled for
// the debounce delay a historical range lookup refreshes SeekMeta.
//
// Key types: Coordinator, SeekMeta, Debouncer, HTTPLookup.
package seek
