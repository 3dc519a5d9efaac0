package logging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

const redacted = "[redacted]"

// sensitiveKeys never reach a sink with their value. Complainants are
// anonymous, so anything that could identify or unlock a report is scrubbed.
var sensitiveKeys = map[string]bool{
	"passcode":      true,
	"passcode_hash": true,
	"password":      true,
	"refresh_token": true,
	"authorization": true,
	"ip":            true,
	"remote_addr":   true,
}

// FanoutHandler delivers each record to every sink that accepts its level,
// after scrubbing sensitive attributes. A failing sink does not stop delivery
// to the others.
type FanoutHandler struct {
	sinks []slog.Handler
}

func NewFanoutHandler(sinks ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{sinks: sinks}
}

func (f *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.sinks {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	clean := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(scrub(a))
		return true
	})

	var errs []error
	for _, h := range f.sinks {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, clean.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleaned[i] = scrub(a)
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(cleaned) })
}

func (f *FanoutHandler) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *FanoutHandler) each(fn func(slog.Handler) slog.Handler) *FanoutHandler {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, h := range f.sinks {
		sinks[i] = fn(h)
	}
	return &FanoutHandler{sinks: sinks}
}

func scrub(a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		cleaned := make([]slog.Attr, len(group))
		for i, g := range group {
			cleaned[i] = scrub(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cleaned...)}
	}
	return a
}
