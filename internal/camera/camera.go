// Package camera wraps the external video capture capability: given a stream
// locator it produces a decoded frame, a still-image file, or a bounded video
// clip. Decode and encode are delegated entirely to OpenCV via gocv; this
// package only orchestrates.
package camera

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkarlsen/lenscap/internal/errors"
)

// DefaultClipSeconds bounds a record task when the caller gives no usable
// duration.
const DefaultClipSeconds = 5

// InstallHint is the fixed message shown when the capture capability is
// unavailable because the binary was built without OpenCV support.
const InstallHint = "OpenCV dependency missing. Install OpenCV 4.x and rebuild without the nocv tag: https://gocv.io/getting-started/"

// Frame is one decoded frame in RGB byte order.
type Frame struct {
	Width  int
	Height int
	RGB    []byte
}

// ToImage converts the frame into a standard library image so display
// surfaces can re-encode it without touching OpenCV.
func (f Frame) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, p := 0, 0; i+2 < len(f.RGB) && p+3 < len(img.Pix); i, p = i+3, p+4 {
		img.Pix[p+0] = f.RGB[i+0]
		img.Pix[p+1] = f.RGB[i+1]
		img.Pix[p+2] = f.RGB[i+2]
		img.Pix[p+3] = 0xff
	}
	return img
}

// RecordOptions describes the geometry and pacing of a recorded clip. Frames
// read from the stream are resized to Width x Height before encoding.
type RecordOptions struct {
	Seconds int
	FPS     float64
	Width   int
	Height  int
}

// Engine is the capture capability boundary. Implementations fail with a
// descriptive error when the locator cannot be opened, no frame is ever
// read, or the output file cannot be written.
type Engine interface {
	PreviewFrame(url string) (Frame, error)
	Snapshot(url, destPath string) error
	Record(url, destPath string, opts RecordOptions) error
}

// Service validates inputs and resolves destinations before delegating to
// the engine. Validation failures surface before any task is started.
type Service struct {
	engine Engine
	now    func() time.Time
}

// NewService creates a Service over the given engine.
func NewService(engine Engine) *Service {
	return &Service{engine: engine, now: time.Now}
}

// PreviewFrame grabs a single decoded frame from the stream.
func (s *Service) PreviewFrame(url string) (Frame, error) {
	normalized, err := normalizeURL(url)
	if err != nil {
		return Frame{}, err
	}
	return s.engine.PreviewFrame(normalized)
}

// Snapshot grabs one frame and writes it as a still image into outputDir,
// returning the destination path.
func (s *Service) Snapshot(url, outputDir string) (string, error) {
	normalized, err := normalizeURL(url)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(outputDir, fmt.Sprintf("frame--%s.png", s.timestampLabel()))
	if err := s.engine.Snapshot(normalized, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Record captures a clip of roughly clipSeconds into outputDir, returning
// the destination path. Non-positive durations fall back to
// DefaultClipSeconds.
func (s *Service) Record(url, outputDir string, clipSeconds int, fps float64, width, height int) (string, error) {
	normalized, err := normalizeURL(url)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(outputDir, fmt.Sprintf("output--%s.mp4", s.timestampLabel()))
	opts := RecordOptions{
		Seconds: NormalizeDuration(clipSeconds),
		FPS:     fps,
		Width:   width,
		Height:  height,
	}
	if err := s.engine.Record(normalized, dest, opts); err != nil {
		return "", err
	}
	return dest, nil
}

// NormalizeDuration clamps a requested clip duration to something usable.
func NormalizeDuration(seconds int) int {
	if seconds <= 0 {
		return DefaultClipSeconds
	}
	return seconds
}

// timestampLabel names output files down to the minute, matching the
// frame--/output-- naming users already have on disk.
func (s *Service) timestampLabel() string {
	return s.now().Format("06-01-02-15-04")
}

func normalizeURL(url string) (string, error) {
	normalized := strings.TrimSpace(url)
	if normalized == "" {
		return "", errors.NewConfiguration("stream URL is required")
	}
	return normalized, nil
}

// isTerminal reports whether a capture error cannot be retried: the locator
// is invalid or the capability itself is missing.
func isTerminal(err error) bool {
	return errors.Is(err, errors.ErrConfiguration) || errors.Is(err, errors.ErrDependencyMissing)
}

// errMessage extracts the human-readable text carried by a capture error.
func errMessage(err error) string {
	if capErr, ok := err.(*errors.CapError); ok {
		return capErr.Message
	}
	return err.Error()
}
