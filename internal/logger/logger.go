// Package logger builds the slog loggers handed to agdaup components.
//
// There is no package-level logger: the CLI creates one with New and passes
// it down. Components accept a nil *slog.Logger and use OrDiscard.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Fields are key/value pairs attached to a logger by With.
type Fields map[string]interface{}

// OutputFormat selects the slog handler.
type OutputFormat string

const (
	// FormatText uses slog.TextHandler.
	FormatText OutputFormat = "text"
	// FormatJSON uses slog.JSONHandler.
	FormatJSON OutputFormat = "json"
)

// ParseLevel maps a level name onto a slog.Level, falling back to info.
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger writing to w (stderr when nil) at logLevel.
func New(logLevel string, format OutputFormat, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(logLevel)}
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// With returns l annotated with fields.
func With(l *slog.Logger, fields ...Fields) *slog.Logger {
	return OrDiscard(l).With(mergeFields(fields...)...)
}

// mergeFields merges multiple field maps into one slice of key-value pairs for slog.
func mergeFields(fields ...Fields) []interface{} {
	result := []interface{}{}
	for _, field := range fields {
		for k, v := range field {
			result = append(result, k, v)
		}
	}
	return result
}
