package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func writeConfig(t *testing.T, home, content string) string {
	t.Helper()
	dir := filepath.Join(home, ".config", "hshchk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Algorithm != DefaultAlgorithm {
		t.Errorf("Algorithm = %q, want %q", cfg.Algorithm, DefaultAlgorithm)
	}
	if cfg.Format != DefaultFormat {
		t.Errorf("Format = %q, want %q", cfg.Format, DefaultFormat)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, DefaultRefreshInterval)
	}
	if cfg.Report.Format != DefaultReportFormat {
		t.Errorf("Report.Format = %q, want %q", cfg.Report.Format, DefaultReportFormat)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}

	n, err := cfg.BufferBytes()
	if err != nil || n != 1<<20 {
		t.Errorf("BufferBytes() = %d, %v, want %d", n, err, 1<<20)
	}
	block, err := cfg.ProgressBlockBytes()
	if err != nil || block != 2<<20 {
		t.Errorf("ProgressBlockBytes() = %d, %v, want %d", block, err, 2<<20)
	}
}

func TestLoad_FromFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, `
algorithm: BLAKE3
format: hshchk
size_only: true
ignore_globs:
  - "*.tmp"
refresh_interval: 1s
cache:
  enabled: true
  path: ~/digests
report:
  path: /tmp/report.json
  format: json
`)

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Algorithm != "BLAKE3" {
		t.Errorf("Algorithm = %q, want BLAKE3", cfg.Algorithm)
	}
	if cfg.Format != "hshchk" {
		t.Errorf("Format = %q, want hshchk", cfg.Format)
	}
	if !cfg.SizeOnly {
		t.Error("SizeOnly = false, want true")
	}
	if len(cfg.IgnoreGlobs) != 1 || cfg.IgnoreGlobs[0] != "*.tmp" {
		t.Errorf("IgnoreGlobs = %v, want [*.tmp]", cfg.IgnoreGlobs)
	}
	if cfg.RefreshInterval != time.Second {
		t.Errorf("RefreshInterval = %v, want 1s", cfg.RefreshInterval)
	}
	if want := filepath.Join(home, "digests"); cfg.CachePath() != want {
		t.Errorf("CachePath() = %q, want %q", cfg.CachePath(), want)
	}
	if cfg.Report.Format != "json" {
		t.Errorf("Report.Format = %q, want json", cfg.Report.Format)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "algorithm: MD5\n")
	t.Setenv("HSHCHK_ALGORITHM", "SHA256")
	t.Setenv("HSHCHK_REPORT_FORMAT", "yaml")

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Algorithm != "SHA256" {
		t.Errorf("Algorithm = %q, want SHA256", cfg.Algorithm)
	}
	if cfg.Report.Format != "yaml" {
		t.Errorf("Report.Format = %q, want yaml", cfg.Report.Format)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("algorithm: SHA512\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Algorithm != "SHA512" {
		t.Errorf("Algorithm = %q, want SHA512", cfg.Algorithm)
	}

	if _, err := Load(nil, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with a missing explicit file should fail")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "algorithm: [unclosed\n")

	if _, err := Load(nil, ""); err == nil {
		t.Error("Load() with invalid YAML should fail")
	}
}

func TestBufferBytes_Invalid(t *testing.T) {
	for _, s := range []string{"lots", "0", ""} {
		cfg := &Config{BufferSize: s}
		if _, err := cfg.BufferBytes(); err == nil {
			t.Errorf("BufferBytes(%q) should fail", s)
		}
	}
}

func TestLoggingConfig(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{
		Level:        "debug",
		Path:         "/var/log/hshchk.log",
		ConsoleLevel: "warn",
		Rotation:     RotationConfig{MaxSize: "1MB", MaxAge: 7, MaxBackups: 2},
		Components:   map[string]string{"engine": "debug"},
	}}

	lc, err := cfg.LoggingConfig()
	if err != nil {
		t.Fatalf("LoggingConfig() error = %v", err)
	}
	if lc.Level != "debug" || lc.ConsoleLevel != "warn" {
		t.Errorf("levels = %q/%q, want debug/warn", lc.Level, lc.ConsoleLevel)
	}
	if lc.Path != "/var/log/hshchk.log" {
		t.Errorf("Path = %q", lc.Path)
	}
	if lc.Rotation.MaxSize != 1000*1000 {
		t.Errorf("Rotation.MaxSize = %d, want 1000000", lc.Rotation.MaxSize)
	}
	if lc.Rotation.MaxAge != 7 || lc.Rotation.MaxBackups != 2 {
		t.Errorf("Rotation = %+v", lc.Rotation)
	}

	cfg.Logging.Rotation.MaxSize = "big"
	if _, err := cfg.LoggingConfig(); err == nil {
		t.Error("LoggingConfig() with invalid max_size should fail")
	}
}

func TestWriteDefault(t *testing.T) {
	home := isolate(t)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if want := filepath.Join(home, ".config", "hshchk", "config.yaml"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if !strings.Contains(string(data), "algorithm: SHA1") {
		t.Error("default config does not set the algorithm")
	}

	if err := os.WriteFile(path, []byte("algorithm: MD5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteDefault(); err != nil {
		t.Fatalf("second WriteDefault() error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "algorithm: MD5\n" {
		t.Error("WriteDefault() overwrote an existing config")
	}

	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Algorithm != "MD5" {
		t.Errorf("Algorithm = %q, want MD5", cfg.Algorithm)
	}
}

func TestWriteDefault_Loads(t *testing.T) {
	isolate(t)

	if _, err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	cfg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, DefaultRefreshInterval)
	}
	if _, err := cfg.LoggingConfig(); err != nil {
		t.Errorf("LoggingConfig() error = %v", err)
	}
}
