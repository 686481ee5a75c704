package logging

import (
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG":  slog.LevelDebug,
		"debug":  slog.LevelDebug,
		" WARN ": slog.LevelWarn,
		"ERROR":  slog.LevelError,
		"INFO":   slog.LevelInfo,
		"":       slog.LevelInfo,
		"TRACE":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
