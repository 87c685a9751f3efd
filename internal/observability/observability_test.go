package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/contrib/processors/minsev"
)

// restoreDefault puts back the default logger replaced by a test.
func restoreDefault(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestInstrumentJSON(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	shutdown, err := instrument(context.Background(), &buf, slog.LevelInfo, "json", "")
	if err != nil {
		t.Fatalf("instrument: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	slog.Debug("hidden")
	slog.Info("pre-verification finished", "outcome", "issued")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if record["outcome"] != "issued" {
		t.Fatalf("record = %v", record)
	}
}

func TestInstrumentText(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	if _, err := instrument(context.Background(), &buf, slog.LevelWarn, "text", ""); err != nil {
		t.Fatalf("instrument: %v", err)
	}

	slog.Info("hidden")
	slog.Warn("credential unavailable")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, "credential unavailable") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestInstrumentOTelStdout(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer

	shutdown, err := instrument(context.Background(), &buf, slog.LevelInfo, "otel", "stdout")
	if err != nil {
		t.Fatalf("instrument: %v", err)
	}

	slog.Info("pre-verification finished")
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if !strings.Contains(buf.String(), "pre-verification finished") {
		t.Fatalf("record not exported: %q", buf.String())
	}
}

func TestInstrumentRejectsUnknownValues(t *testing.T) {
	restoreDefault(t)

	if _, err := instrument(context.Background(), &bytes.Buffer{}, slog.LevelInfo, "xml", ""); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := instrument(context.Background(), &bytes.Buffer{}, slog.LevelInfo, "otel", "carrier-pigeon"); err == nil {
		t.Error("expected error for unknown exporter")
	}
}

func TestSeverity(t *testing.T) {
	tests := map[slog.Level]minsev.Severity{
		slog.LevelDebug - 4: minsev.SeverityDebug,
		slog.LevelDebug:     minsev.SeverityDebug,
		slog.LevelInfo:      minsev.SeverityInfo,
		slog.LevelWarn:      minsev.SeverityWarn,
		slog.LevelError:     minsev.SeverityError,
	}
	for level, want := range tests {
		if got := severity(level); got != want {
			t.Errorf("severity(%s) = %v, want %v", level, got, want)
		}
	}
}
