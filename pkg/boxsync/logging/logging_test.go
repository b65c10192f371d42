package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
)

// Note: these tests modify global logging state and cannot run in parallel.
func TestInit(t *testing.T) {
	validDir := t.TempDir()
	componentsDir := t.TempDir()
	invalidDir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(validDir, "test.log"),
			},
			wantErr: false,
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level: "info",
				Path:  filepath.Join(componentsDir, "components.log"),
				Components: map[string]string{
					"compare": "debug",
					"resolve": "warn",
				},
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			cfg: logging.Config{
				Level: "invalid",
				Path:  filepath.Join(invalidDir, "invalid.log"),
			},
			wantErr: true,
		},
		{
			name: "invalid component level",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(invalidDir, "component.log"),
				Components: map[string]string{"compare": "loud"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err == nil {
				if closeErr := logging.Close(); closeErr != nil {
					t.Errorf("Close() error = %v", closeErr)
				}
			}
		})
	}
}

func TestGet(t *testing.T) {
	cfg := logging.Config{
		Level: "info",
		Path:  filepath.Join(t.TempDir(), "test.log"),
	}
	if err := logging.Init(cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() {
		if err := logging.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	for _, component := range []string{"manifest", "compare", "resolve", ""} {
		if logging.Get(component) == nil {
			t.Errorf("Get(%q) returned nil", component)
		}
	}

	if logging.Get("manifest") != logging.Get("manifest") {
		t.Error("Get() should return the same logger for the same component")
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "write.log")

	if err := logging.Init(logging.Config{Level: "debug", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logger := logging.Get("test")
	logger.Info("manifest stored", "dir", "/tmp/project")
	logger.Debug("scan complete")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "manifest stored") {
		t.Errorf("log file does not contain expected message, got: %s", content)
	}
}

func TestLogLevels(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "levels.log")

	if err := logging.Init(logging.Config{Level: "warn", Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logger := logging.Get("test")
	logger.Debug("debug should not appear")
	logger.Info("info should not appear")
	logger.Warn("warn should appear")
	logger.Error("error should appear")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	logContent := string(content)

	if strings.Contains(logContent, "should not appear") {
		t.Errorf("suppressed levels leaked into log: %s", logContent)
	}
	if !strings.Contains(logContent, "warn should appear") {
		t.Errorf("warn message missing from log: %s", logContent)
	}
	if !strings.Contains(logContent, "error should appear") {
		t.Errorf("error message missing from log: %s", logContent)
	}
}

func TestGetBeforeInitDiscards(t *testing.T) {
	logger := logging.Get("uninitialized")
	if logger == nil {
		t.Fatal("Get() returned nil before Init")
	}
	// Must not panic.
	logger.Info("dropped")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"info", logging.LevelInfo, false},
		{"WARN", logging.LevelWarn, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"loud", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
