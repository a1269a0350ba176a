package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogHandler is a slog.Handler that forwards log records onto the event
// stream as info/warning events, so diagnostics share the NDJSON channel
// instead of corrupting it with plain text.
type LogHandler struct {
	emitter *Emitter
	level   slog.Leveler
	attrs   []slog.Attr
}

// NewLogHandler creates a handler forwarding records at or above level.
func NewLogHandler(emitter *Emitter, level slog.Leveler) *LogHandler {
	return &LogHandler{emitter: emitter, level: level}
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Message)

	appendAttr := func(a slog.Attr) bool {
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value)
		return true
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(appendAttr)

	if r.Level >= slog.LevelWarn {
		h.emitter.Emit(Warning(sb.String()))
	} else {
		h.emitter.Emit(Info(sb.String()))
	}
	return nil
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	combined = append(combined, h.attrs...)
	combined = append(combined, attrs...)
	return &LogHandler{emitter: h.emitter, level: h.level, attrs: combined}
}

func (h *LogHandler) WithGroup(string) slog.Handler {
	// Groups are flattened; the event stream is advisory.
	return h
}
