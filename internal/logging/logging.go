// Package logging writes one JSON object per line. Records are encoded by
// slog's JSON handler and emitted through a standard library logger, so
// callers keep passing *log.Logger around.
package logging

import (
	"context"
	"log"
	"log/slog"
	"sort"
	"strings"
	"time"
)

const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Event logs msg at level with the given fields. A nil logger discards.
func Event(logger *log.Logger, level, msg string, fields map[string]any) {
	if logger == nil {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}

	slog.New(NewHandler(logger)).LogAttrs(context.Background(), parseLevel(level), msg, attrs...)
}

func Info(logger *log.Logger, msg string, fields map[string]any) {
	Event(logger, LevelInfo, msg, fields)
}

func Warn(logger *log.Logger, msg string, fields map[string]any) {
	Event(logger, LevelWarn, msg, fields)
}

func Error(logger *log.Logger, msg string, err error, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	Event(logger, LevelError, msg, fields)
}

// NewHandler returns a JSON handler writing through logger, with "ts" for
// the time key and lower-case levels.
func NewHandler(logger *log.Logger) slog.Handler {
	return slog.NewJSONHandler(loggerWriter{logger}, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: replaceAttr,
	})
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
	case slog.LevelKey:
		return slog.String(slog.LevelKey, strings.ToLower(a.Value.String()))
	}
	return a
}

func parseLevel(level string) slog.Level {
	switch level {
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// loggerWriter hands each encoded record to the logger in one call, so
// concurrent records never interleave.
type loggerWriter struct {
	l *log.Logger
}

func (w loggerWriter) Write(p []byte) (int, error) {
	if err := w.l.Output(2, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}
