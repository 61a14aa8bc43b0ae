package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// ClipSeconds is the default record-clip duration.
	ClipSeconds int `json:"clip_seconds"`

	// RecordFPS is the encode frame rate for recorded clips.
	RecordFPS float64 `json:"record_fps"`

	// FrameWidth and FrameHeight are the clip geometry; stream frames are
	// resized to fit.
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`

	// PreviewFPS is the target frame rate for continuous preview.
	PreviewFPS float64 `json:"preview_fps"`

	// Bind and Port configure the HTTP API listener.
	Bind string `json:"bind,omitempty"`
	Port int    `json:"port,omitempty"`

	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string `json:"log_level,omitempty"`

	// LogToFile enables rotated file logging under baseDir/logs.
	LogToFile bool `json:"log_to_file,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ClipSeconds: 5,
		RecordFPS:   5.0,
		FrameWidth:  640,
		FrameHeight: 480,
		PreviewFPS:  12.0,
		Bind:        "127.0.0.1",
		Port:        8750,
		LogLevel:    "info",
	}
}

// Load loads configuration from baseDir/config.json, overlaid with LENSCAP_*
// environment variables (a .env file in the working directory is honored).
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.lenscap.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs. Overlay values take precedence
// when non-zero.
func Merge(base, overlay *Config) *Config {
	result := *overlay

	if result.ClipSeconds == 0 {
		result.ClipSeconds = base.ClipSeconds
	}
	if result.RecordFPS == 0 {
		result.RecordFPS = base.RecordFPS
	}
	if result.FrameWidth == 0 {
		result.FrameWidth = base.FrameWidth
	}
	if result.FrameHeight == 0 {
		result.FrameHeight = base.FrameHeight
	}
	if result.PreviewFPS == 0 {
		result.PreviewFPS = base.PreviewFPS
	}
	if result.Bind == "" {
		result.Bind = base.Bind
	}
	if result.Port == 0 {
		result.Port = base.Port
	}
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}
	result.LogToFile = base.LogToFile || overlay.LogToFile

	return &result
}

// applyEnv overlays LENSCAP_* environment variables onto cfg. A .env file is
// loaded best-effort first; unparseable values are ignored.
func applyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v, ok := envInt("LENSCAP_CLIP_SECONDS"); ok {
		cfg.ClipSeconds = v
	}
	if v, ok := envFloat("LENSCAP_RECORD_FPS"); ok {
		cfg.RecordFPS = v
	}
	if v, ok := envInt("LENSCAP_FRAME_WIDTH"); ok {
		cfg.FrameWidth = v
	}
	if v, ok := envInt("LENSCAP_FRAME_HEIGHT"); ok {
		cfg.FrameHeight = v
	}
	if v, ok := envFloat("LENSCAP_PREVIEW_FPS"); ok {
		cfg.PreviewFPS = v
	}
	if v := strings.TrimSpace(os.Getenv("LENSCAP_BIND")); v != "" {
		cfg.Bind = v
	}
	if v, ok := envInt("LENSCAP_PORT"); ok {
		cfg.Port = v
	}
	if v := strings.TrimSpace(os.Getenv("LENSCAP_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("LENSCAP_LOG_TO_FILE")); v == "1" || strings.EqualFold(v, "true") {
		cfg.LogToFile = true
	}
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}

func envFloat(key string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
