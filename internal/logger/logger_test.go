package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")
	defer InitWithWriter(&buf, "INFO", "text")

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("debug message should be filtered at WARN level")
	}
	if strings.Contains(out, "info message") {
		t.Error("info message should be filtered at WARN level")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("warn message should be logged at WARN level")
	}
	if !strings.Contains(out, "error message") {
		t.Error("error message should be logged at WARN level")
	}
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	Info("upload complete", "path", "FINANCE/report.xlsx", "size", 1024)

	out := buf.String()
	if !strings.Contains(out, "path=FINANCE/report.xlsx") {
		t.Errorf("expected path attribute in output, got: %s", out)
	}
	if !strings.Contains(out, "size=1024") {
		t.Errorf("expected size attribute in output, got: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json")
	defer SetFormat("text")

	Info("listing folder", "folder", "BL")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if record["msg"] != "listing folder" {
		t.Errorf("expected msg %q, got %v", "listing folder", record["msg"])
	}
	if record["folder"] != "BL" {
		t.Errorf("expected folder %q, got %v", "BL", record["folder"])
	}
}

func TestSetLevelIgnoresInvalid(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	SetLevel("NONSENSE")
	Info("still logged")
	if !strings.Contains(buf.String(), "still logged") {
		t.Error("invalid level should not change filtering")
	}
}
