package pipeline

import "github.com/AngelP17/HARPY-sub000/internal/monitoring"

var logs = monitoring.NewStreams("pipeline")

// opsf logs to the ops stream (actionable warnings, errors, data loss).
func opsf(format string, args ...interface{}) { logs.Opsf(format, args...) }

// diagf logs to the diag stream (day-to-day diagnostics, tuning context).
func diagf(format string, args ...interface{}) { logs.Diagf(format, args...) }

// tracef logs to the trace stream (high-frequency telemetry).
func tracef(format string, args ...interface{}) { logs.Tracef(format, args...) }
