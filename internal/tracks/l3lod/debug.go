package l3lod

import "github.com/AngelP17/HARPY-sub000/internal/monitoring"

var logs = monitoring.NewStreams("l3lod")

// diagf logs to the diag stream (LOD changes).
func diagf(format string, args ...interface{}) { logs.Diagf(format, args...) }

// tracef logs to the trace stream (per-pass cluster counts).
func tracef(format string, args ...interface{}) { logs.Tracef(format, args...) }
