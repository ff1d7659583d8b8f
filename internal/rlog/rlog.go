/*
Package rlog provides the executive's slog.Handler: a thin wrapper, in the
shape of util/logger.LogHandler, that formats each record as a single line
and fans it out to two sinks — the log-shipping transport when connected,
and always standard output — instead of the teacher's file-or-stderr
choice. Formatting follows spec.md §6's log-transport line format exactly,
since that format is also what the transport ships over the wire.
*/
package rlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Sink receives one already-formatted log line. Sinks must not block
// indefinitely; logtransport.Client satisfies this by queueing internally.
type Sink interface {
	WriteLine(line string)
}

// Handler is the executive's slog.Handler.
type Handler struct {
	mu    *sync.Mutex
	sink  Sink
	attrs []slog.Attr
	h     slog.Handler
}

// NewHandler builds a Handler that also forwards formatted lines to sink.
// sink may be nil, in which case only stdout receives output.
func NewHandler(sink Sink, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &Handler{
		mu:   &sync.Mutex{},
		sink: sink,
		h:    slog.NewTextHandler(os.Stdout, opts),
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{mu: h.mu, sink: h.sink, h: h.h.WithAttrs(attrs), attrs: append(h.attrs, attrs...)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{mu: h.mu, sink: h.sink, h: h.h.WithGroup(name), attrs: h.attrs}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	line := formatLine(r, h.attrs)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sink != nil {
		h.sink.WriteLine(line)
	}
	_, err := os.Stdout.WriteString(line)
	return err
}

func formatLine(r slog.Record, extra []slog.Attr) string {
	level := levelName(r.Level)
	parts := []string{fmt.Sprintf("[%s] [%s] %s", r.Time.Format("2006-01-02 15:04:05"), level, r.Message)}

	for _, a := range extra {
		parts = append(parts, a.Key+"="+a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})

	return strings.Join(parts, " ") + "\n"
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
