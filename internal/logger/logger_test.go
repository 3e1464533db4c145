package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		format   OutputFormat
		logFn    func(l *slog.Logger)
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func(l *slog.Logger) { l.Info("test info message") },
			contains: []string{"test info message", "level=INFO"},
		},
		{
			name:     "debug log with debug level",
			level:    "debug",
			logFn:    func(l *slog.Logger) { l.Debug("test debug message") },
			contains: []string{"test debug message", "level=DEBUG"},
		},
		{
			name:     "debug log with info level",
			level:    "info",
			logFn:    func(l *slog.Logger) { l.Debug("test debug message") },
			excludes: []string{"test debug message"},
		},
		{
			name:     "json format",
			level:    "info",
			format:   FormatJSON,
			logFn:    func(l *slog.Logger) { l.Warn("switched", "version", "2.6.4") },
			contains: []string{`"msg":"switched"`, `"version":"2.6.4"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFn(New(tt.level, tt.format, buf))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestWith(t *testing.T) {
	buf := &bytes.Buffer{}
	l := With(New("info", FormatText, buf), Fields{"component": "state"})
	l.Info("hello")
	assert.Contains(t, buf.String(), "component=state")
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := New("info", FormatText, &bytes.Buffer{})
	assert.Same(t, l, OrDiscard(l))
	// must not panic
	Discard().Error("dropped")
}
