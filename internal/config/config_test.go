package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := DefaultConfig()
	if cfg.ClipSeconds != want.ClipSeconds || cfg.RecordFPS != want.RecordFPS ||
		cfg.FrameWidth != want.FrameWidth || cfg.PreviewFPS != want.PreviewFPS {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `{"clip_seconds": 10, "frame_width": 1280}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ClipSeconds != 10 {
		t.Errorf("ClipSeconds = %d, want 10", cfg.ClipSeconds)
	}
	if cfg.FrameWidth != 1280 {
		t.Errorf("FrameWidth = %d, want 1280", cfg.FrameWidth)
	}
	// Untouched fields keep defaults.
	if cfg.FrameHeight != 480 {
		t.Errorf("FrameHeight = %d, want 480", cfg.FrameHeight)
	}
	if cfg.RecordFPS != 5.0 {
		t.Errorf("RecordFPS = %v, want 5", cfg.RecordFPS)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{{{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("malformed config file should be an error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LENSCAP_CLIP_SECONDS", "30")
	t.Setenv("LENSCAP_LOG_LEVEL", "debug")
	t.Setenv("LENSCAP_LOG_TO_FILE", "true")
	t.Setenv("LENSCAP_RECORD_FPS", "not-a-number")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ClipSeconds != 30 {
		t.Errorf("ClipSeconds = %d, want 30", cfg.ClipSeconds)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !cfg.LogToFile {
		t.Error("LogToFile should be true")
	}
	if cfg.RecordFPS != 5.0 {
		t.Errorf("unparseable env value must be ignored, RecordFPS = %v", cfg.RecordFPS)
	}
}

func TestMergeBooleans(t *testing.T) {
	base := DefaultConfig()
	base.LogToFile = true
	merged := Merge(base, &Config{})
	if !merged.LogToFile {
		t.Error("true in base must survive merge")
	}
}
