package l2index

import "github.com/AngelP17/HARPY-sub000/internal/monitoring"

var logs = monitoring.NewStreams("l2index")

// opsf logs to the ops stream (rejected deltas).
func opsf(format string, args ...interface{}) { logs.Opsf(format, args...) }

// diagf logs to the diag stream (filter changes).
func diagf(format string, args ...interface{}) { logs.Diagf(format, args...) }

// tracef logs to the trace stream (per-batch counts).
func tracef(format string, args ...interface{}) { logs.Tracef(format, args...) }
