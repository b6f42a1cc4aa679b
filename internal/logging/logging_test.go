package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/ytverify/internal/model"
)

func TestNew_Levels(t *testing.T) {
	logger, closer, err := New(model.LogConfig{Level: "warn"}, false)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer closer.Close()

	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("Expected warn level, got %s", logger.GetLevel())
	}

	verbose, closer2, err := New(model.LogConfig{Level: "warn"}, true)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer closer2.Close()

	if verbose.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected verbose to force debug, got %s", verbose.GetLevel())
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	if _, _, err := New(model.LogConfig{Level: "loud"}, false); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, _, err := New(model.LogConfig{Format: "xml"}, false); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ytverify.log")

	logger, closer, err := New(model.LogConfig{Format: "json", File: path, MaxSizeMB: 1}, false)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.WithField("video_id", "dQw4w9WgXcQ").Info("check complete")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file, got %v", err)
	}
	if !strings.Contains(string(data), `"video_id":"dQw4w9WgXcQ"`) {
		t.Errorf("Expected JSON entry with video_id, got %s", data)
	}
}
