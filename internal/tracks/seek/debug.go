package seek

import "github.com/AngelP17/HARPY-sub000/internal/monitoring"

var logs = monitoring.NewStreams("seek")

// opsf logs to the ops stream (lookup and publish failures).
func opsf(format string, args ...interface{}) { logs.Opsf(format, args...) }

// diagf logs to the diag stream (mode changes, settled scrubs).
func diagf(format string, args ...interface{}) { logs.Diagf(format, args...) }
