package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("pass complete", "transformed", 3)

	out := buf.String()
	if !strings.Contains(out, "pass complete") {
		t.Fatalf("missing message: %s", out)
	}
	if !strings.Contains(out, `"transformed":3`) {
		t.Fatalf("missing attribute: %s", out)
	}
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("hidden")
	if buf.Len() > 0 {
		t.Fatalf("info leaked past warn level: %s", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn missing: %s", buf.String())
	}
}

func TestPrettyOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelInfo)
	log.Info("node rewritten", "op", "relu", "note", "has space")

	out := buf.String()
	if !strings.Contains(out, "node rewritten") {
		t.Fatalf("missing message: %s", out)
	}
	if !strings.Contains(out, "op=relu") {
		t.Fatalf("missing plain attr: %s", out)
	}
	if !strings.Contains(out, `note="has space"`) {
		t.Fatalf("attr with space must be quoted: %s", out)
	}
}

func TestWithCarriesAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo).With("run_id", "abc")
	log.Info("hello")
	if !strings.Contains(buf.String(), `"run_id":"abc"`) {
		t.Fatalf("With attr lost: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Fatalf("context logger not used: %s", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must fall back to a default logger")
	}
}

func TestPrettyHandlerGroupPrefix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil).WithGroup("pass")
	slog.New(h).Info("grouped", "nodes", 4)
	if !strings.Contains(buf.String(), "pass.nodes=4") {
		t.Fatalf("group prefix missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): got %v, want %v", in, got, want)
		}
	}
}
