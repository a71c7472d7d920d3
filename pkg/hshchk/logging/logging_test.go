package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/hshchk/pkg/hshchk/logging"
)

// These tests share the package-level logging state and do not run in parallel.

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"", logging.LevelInfo, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"loud", logging.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, logging.ErrInvalidLevel) {
			t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hshchk.log")

	err := logging.Init(logging.Config{
		Level:      "info",
		Path:       path,
		Components: map[string]string{"engine": "debug"},
		Fields:     []interface{}{"run_id", "abc123"},
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("engine").Debug("engine detail", "file", "a.txt")
	logging.Get("cli").Debug("hidden detail")
	logging.Get("cli").Info("cli message")

	if err := logging.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	content := string(data)

	for _, want := range []string{"engine detail", "cli message", "run_id=abc123"} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "hidden detail") {
		t.Errorf("debug message for info component was written:\n%s", content)
	}
}

func TestInitInvalidConfig(t *testing.T) {
	dir := t.TempDir()

	if err := logging.Init(logging.Config{Level: "nope", Path: filepath.Join(dir, "a.log")}); err == nil {
		t.Error("expected error for invalid level")
	}
	if err := logging.Init(logging.Config{
		Level:      "info",
		Path:       filepath.Join(dir, "b.log"),
		Components: map[string]string{"engine": "nope"},
	}); err == nil {
		t.Error("expected error for invalid component level")
	}
	if err := logging.Init(logging.Config{
		Level:        "info",
		Path:         filepath.Join(dir, "c.log"),
		ConsoleLevel: "nope",
	}); err == nil {
		t.Error("expected error for invalid console level")
	}
}

func TestGetBeforeInitDiscards(t *testing.T) {
	if err := logging.Close(); err != nil {
		t.Fatal(err)
	}

	l := logging.Get("quiet")
	l.Info("nowhere")
	l.With("k", "v").Error("still nowhere")

	if logging.Get("quiet") != l {
		t.Error("Get should return the cached logger")
	}
}

func TestRotatingWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hshchk.log")

	w, err := logging.NewRotatingWriter(path, logging.RotationConfig{MaxSize: 10, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := w.Write([]byte("0123456789")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var rotated int
	for _, e := range entries {
		if e.Name() != "hshchk.log" {
			rotated++
		}
	}
	if rotated == 0 || rotated > 2 {
		t.Errorf("rotated files = %d, want 1..2", rotated)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "0123456789" {
		t.Errorf("current file = %q", data)
	}

	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("Write after Close should fail")
	}
}
