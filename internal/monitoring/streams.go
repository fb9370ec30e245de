package monitoring

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Streams is a component-scoped set of ops/diag/trace log helpers.
// It resolves the global logger on every call so a later Init takes effect.
type Streams struct {
	component string
}

// NewStreams returns Streams tagged with the given component name.
func NewStreams(component string) *Streams {
	return &Streams{component: component}
}

// Opsf logs actionable events (dropped messages, decode errors) at warn.
func (s *Streams) Opsf(format string, args ...interface{}) {
	s.emit(zerolog.WarnLevel, format, args)
}

// Diagf logs state changes at debug.
func (s *Streams) Diagf(format string, args ...interface{}) {
	s.emit(zerolog.DebugLevel, format, args)
}

// Tracef logs high-frequency telemetry at trace.
func (s *Streams) Tracef(format string, args ...interface{}) {
	s.emit(zerolog.TraceLevel, format, args)
}

func (s *Streams) emit(level zerolog.Level, format string, args []interface{}) {
	l := Component(s.component)
	ev := l.WithLevel(level)
	if ev == nil {
		return
	}
	ev.Msg(fmt.Sprintf(format, args...))
}
