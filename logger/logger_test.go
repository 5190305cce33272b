package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	file := filepath.Join(t.TempDir(), "morfsuite.log")
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.File = file

	log, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Info("hello")
	log.Debug("hidden")
	log.Sync()

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file = %q; want the info message", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("log file = %q; debug message written at info level", data)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	for _, cfg := range []Config{
		{Level: "loud", Format: "json"},
		{Level: "info", Format: "xml"},
	} {
		if _, err := New(cfg); err == nil {
			t.Errorf("New(%+v) error = nil; want error", cfg)
		}
	}
}
