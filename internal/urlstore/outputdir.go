package urlstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkarlsen/lenscap/internal/errors"
)

const (
	// OutputDirKey is the settings key holding the configured capture folder.
	OutputDirKey = "output_dir_v1"

	// captureFolderName is the directory created under the user's home (or
	// Pictures folder) when no output directory has been configured.
	captureFolderName = "Lenscap"
)

// DefaultOutputDir returns the fallback capture folder: a subdirectory of
// ~/Pictures when that exists, otherwise a subdirectory of the home dir.
func (s *Store) DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return captureFolderName
	}
	pictures := filepath.Join(home, "Pictures")
	if info, err := os.Stat(pictures); err == nil && info.IsDir() {
		return filepath.Join(pictures, captureFolderName)
	}
	return filepath.Join(home, captureFolderName)
}

// OutputDir resolves the capture folder: the configured path when it is
// usable, otherwise the default, which is created and persisted so later
// calls are stable. A configured path that cannot be made into a directory
// falls back rather than failing; only SetOutputDir surfaces that error.
func (s *Store) OutputDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	configured, _ := s.settings.Get(OutputDirKey)
	configured = strings.TrimSpace(configured)

	if configured != "" {
		if resolved, err := ensureDirectory(configured); err == nil {
			return resolved, nil
		}
	}

	resolved, err := ensureDirectory(s.DefaultOutputDir())
	if err != nil {
		return "", err
	}
	if err := s.settings.Set(OutputDirKey, resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

// SetOutputDir validates, creates, and persists the capture folder. Unlike
// OutputDir it never falls back silently: the user asked for this exact path
// and gets a descriptive error when it cannot serve.
func (s *Store) SetOutputDir(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved, err := ensureDirectory(path)
	if err != nil {
		return "", err
	}
	if err := s.settings.Set(OutputDirKey, resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

// ensureDirectory expands, validates, and creates the given path, returning
// a typed configuration error when it cannot be used as a directory.
func ensureDirectory(path string) (string, error) {
	normalized := strings.TrimSpace(path)
	if normalized == "" {
		return "", errors.NewConfiguration("output folder path cannot be empty")
	}

	candidate := expandHome(normalized)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return "", errors.NewConfiguration(fmt.Sprintf("output folder is not a directory: %s", candidate))
	}
	if err := os.MkdirAll(candidate, 0755); err != nil {
		return "", errors.NewConfiguration(fmt.Sprintf("could not create output folder %s: %v", candidate, err))
	}
	return candidate, nil
}

// expandHome resolves a leading "~" against the current user's home dir.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}
