package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "text", nil); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New("info", "xml", nil); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLogErrorFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("error", "json", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	LogError(logger, "batch", "Run", "calculate record", map[string]int{"record_id": 2}, errors.New("boom"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["module"] != "batch" || entry["funcName"] != "Run" || entry["msg"] != "boom" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if _, ok := entry["data"]; !ok {
		t.Fatal("expected data field")
	}
	if logger.GetLevel() != logrus.ErrorLevel {
		t.Fatalf("expected error level, got %s", logger.GetLevel())
	}
}
