package urlstore

import (
	"os"
	"path/filepath"
	"testing"

	caperr "github.com/mkarlsen/lenscap/internal/errors"
)

func TestSetOutputDirCreatesAndPersists(t *testing.T) {
	store, mem := newTestStore()
	target := filepath.Join(t.TempDir(), "captures", "nested")

	resolved, err := store.SetOutputDir(target)
	if err != nil {
		t.Fatalf("SetOutputDir failed: %v", err)
	}
	if resolved != target {
		t.Errorf("resolved = %q, want %q", resolved, target)
	}

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Errorf("directory not created: %v", err)
	}
	persisted, _ := mem.Get(OutputDirKey)
	if persisted != target {
		t.Errorf("persisted = %q, want %q", persisted, target)
	}
}

func TestSetOutputDirEmptyPath(t *testing.T) {
	store, _ := newTestStore()
	for _, path := range []string{"", "   "} {
		if _, err := store.SetOutputDir(path); !caperr.Is(err, caperr.ErrConfiguration) {
			t.Errorf("SetOutputDir(%q) = %v, want CONFIGURATION error", path, err)
		}
	}
}

func TestSetOutputDirRejectsFile(t *testing.T) {
	store, _ := newTestStore()
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := store.SetOutputDir(file)
	if !caperr.Is(err, caperr.ErrConfiguration) {
		t.Errorf("err = %v, want CONFIGURATION error", err)
	}
}

func TestOutputDirUsesConfiguredPath(t *testing.T) {
	store, mem := newTestStore()
	target := filepath.Join(t.TempDir(), "configured")
	_ = mem.Set(OutputDirKey, target)

	resolved, err := store.OutputDir()
	if err != nil {
		t.Fatalf("OutputDir failed: %v", err)
	}
	if resolved != target {
		t.Errorf("resolved = %q, want %q", resolved, target)
	}
}

func TestOutputDirFallsBackWhenConfiguredUnusable(t *testing.T) {
	store, mem := newTestStore()
	file := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	_ = mem.Set(OutputDirKey, file)

	resolved, err := store.OutputDir()
	if err != nil {
		t.Fatalf("OutputDir failed: %v", err)
	}
	if resolved == file {
		t.Error("unusable configured path must not be returned")
	}
	// Fallback gets persisted so the next resolution is stable.
	persisted, _ := mem.Get(OutputDirKey)
	if persisted != resolved {
		t.Errorf("persisted = %q, want %q", persisted, resolved)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandHome("~/captures"); got != filepath.Join(home, "captures") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("expandHome should leave absolute paths alone, got %q", got)
	}
}
