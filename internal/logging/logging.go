// Package logging builds the process logger and carries request-scoped
// loggers through a context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

const (
	FormatJSON = "json"
	FormatText = "text"
)

type Options struct {
	Level   string
	Format  string
	Service string
	// Writer defaults to stdout.
	Writer io.Writer
}

// New returns a logger for o. Unknown levels fall back to info and unknown
// formats to JSON.
func New(o Options) *slog.Logger {
	w := o.Writer
	if w == nil {
		w = os.Stdout
	}
	hopts := &slog.HandlerOptions{Level: ParseLevel(o.Level)}

	var h slog.Handler
	if strings.EqualFold(o.Format, FormatText) {
		h = slog.NewTextHandler(w, hopts)
	} else {
		h = slog.NewJSONHandler(w, hopts)
	}

	l := slog.New(h)
	if o.Service != "" {
		l = l.With("service", o.Service)
	}
	return l
}

// ParseLevel accepts slog's level names, offsets such as "warn+2" included.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Discard drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext falls back to slog.Default when ctx carries no logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
