package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	log := New("info", "json", &buf).Component("loader")
	log.Info("dataset loaded", "rows", 12)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}

	if record["component"] != "loader" {
		t.Errorf("component = %v, want loader", record["component"])
	}

	if record["rows"] != float64(12) {
		t.Errorf("rows = %v, want 12", record["rows"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	log := New("warn", "text", &buf)
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}

	if !strings.Contains(out, "shown") {
		t.Errorf("warn record missing: %q", out)
	}

	log.SetLevel("debug")
	log.Debug("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug record missing after SetLevel")
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("nothing happens")

	if log.Slog() == nil {
		t.Fatal("Slog() returned nil")
	}
}
