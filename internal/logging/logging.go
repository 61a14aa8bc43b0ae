// Package logging configures the process-wide zerolog logger: a styled
// console writer on stderr plus optional rotated file output.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level     string // zerolog level name; unrecognized values default to info
	ToFile    bool
	LogDir    string // directory for rotated files when ToFile is set
	FileName  string // base name, default "lenscap"
	MaxSizeMB int    // rotation threshold, default 10
}

// New builds the application logger. Console output goes to stderr so the
// CLI's stdout contract (JSON results, the Success/Fail compat surface)
// stays machine-readable.
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = "2006-01-02 15:04:05.000"

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05.000",
	}}

	if opts.ToFile {
		if fw := buildFileWriter(opts); fw != nil {
			writers = append(writers, fw)
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger()

	return logger.Level(parseLevel(opts.Level))
}

// buildFileWriter creates the rotating file writer, returning nil on setup
// failure so logging degrades to console-only instead of failing startup.
// Files are named by date so runs within the same day share a file.
func buildFileWriter(opts Options) io.Writer {
	logDir := opts.LogDir
	if logDir == "" {
		logDir = "./logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil
	}

	name := opts.FileName
	if name == "" {
		name = "lenscap"
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(logDir, name+"_"+time.Now().Format("02-01-2006")+".log"),
		MaxSize:    maxSize,
		MaxBackups: 3,
		MaxAge:     30,
	}
}

func parseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}
