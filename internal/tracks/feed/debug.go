package feed

import "github.com/AngelP17/HARPY-sub000/internal/monitoring"

var logs = monitoring.NewStreams("feed")

// opsf logs to the ops stream (lost subscriptions, publish failures).
func opsf(format string, args ...interface{}) { logs.Opsf(format, args...) }

// diagf logs to the diag stream (subscribe and publish lifecycle).
func diagf(format string, args ...interface{}) { logs.Diagf(format, args...) }

// tracef logs to the trace stream (per-message telemetry).
func tracef(format string, args ...interface{}) { logs.Tracef(format, args...) }
