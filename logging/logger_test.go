package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	logger, _, err := New(Config{Level: "info", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info("model loaded", zap.String("path", "models/fraud_detection_model.json"))
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), data)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json line: %v", err)
	}
	if entry["msg"] != "model loaded" || entry["path"] != "models/fraud_detection_model.json" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestSetLevel(t *testing.T) {
	level := zap.NewAtomicLevel()
	if err := SetLevel(level, "debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level.Level() != zapcore.DebugLevel {
		t.Fatalf("expected debug, got %s", level.Level())
	}
	if err := SetLevel(level, ""); err != nil || level.Level() != zapcore.InfoLevel {
		t.Fatalf("expected empty name to mean info, got %s (%v)", level.Level(), err)
	}
	if err := SetLevel(level, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, _, err := New(Config{Level: "verbose"}); err == nil {
		t.Fatal("expected error")
	}
}
