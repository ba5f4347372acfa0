package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/brixworks/sitesync/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	l := New(config.Logging{Level: "debug", Service: "sitesync-test"})
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be enabled")
	}
}

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	if RequestID(ctx) != "" || RunID(ctx) != "" {
		t.Fatal("expected empty ids on bare context")
	}

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithRunID(ctx, "run-1")
	if RequestID(ctx) != "req-1" {
		t.Errorf("expected req-1, got %q", RequestID(ctx))
	}
	if RunID(ctx) != "run-1" {
		t.Errorf("expected run-1, got %q", RunID(ctx))
	}
}
