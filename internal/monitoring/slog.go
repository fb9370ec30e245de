package monitoring

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// NewSlogLogger returns a *slog.Logger that writes through the root zerolog
// logger, for libraries that only accept slog (suture's event hook and
// watermill). Groups become dotted key prefixes.
func NewSlogLogger() *slog.Logger {
	return slog.New(zerologHandler{zl: Logger()})
}

// zerologHandler is a slog.Handler. Attributes bound with WithAttrs are
// rendered once into the derived logger's context.
type zerologHandler struct {
	zl zerolog.Logger
	// prefix is the dotted group path, empty or ending in ".".
	prefix string
}

func (h zerologHandler) Enabled(_ context.Context, l slog.Level) bool {
	lvl := zerologLevel(l)
	return lvl >= h.zl.GetLevel() && lvl >= zerolog.GlobalLevel()
}

func (h zerologHandler) Handle(_ context.Context, r slog.Record) error {
	ev := h.zl.WithLevel(zerologLevel(r.Level))
	if r.NumAttrs() > 0 {
		fields := make(map[string]interface{}, r.NumAttrs())
		r.Attrs(func(a slog.Attr) bool {
			flatten(fields, h.prefix, a)
			return true
		})
		ev = ev.Fields(fields)
	}
	ev.Msg(r.Message)
	return nil
}

func (h zerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	fields := make(map[string]interface{}, len(attrs))
	for _, a := range attrs {
		flatten(fields, h.prefix, a)
	}
	return zerologHandler{zl: h.zl.With().Fields(fields).Logger(), prefix: h.prefix}
}

func (h zerologHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return zerologHandler{zl: h.zl, prefix: h.prefix + name + "."}
}

// flatten writes a into dst, expanding groups into prefixed keys. Empty
// keys are dropped except on groups, whose members are inlined.
func flatten(dst map[string]interface{}, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, member := range v.Group() {
			flatten(dst, prefix, member)
		}
		return
	}
	if a.Key == "" {
		return
	}
	dst[prefix+a.Key] = v.Any()
}

func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l >= slog.LevelError:
		return zerolog.ErrorLevel
	case l >= slog.LevelWarn:
		return zerolog.WarnLevel
	case l >= slog.LevelInfo:
		return zerolog.InfoLevel
	case l >= slog.LevelDebug:
		return zerolog.DebugLevel
	}
	return zerolog.TraceLevel
}
