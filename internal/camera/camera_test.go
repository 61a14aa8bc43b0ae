package camera

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	caperr "github.com/mkarlsen/lenscap/internal/errors"
)

// fakeEngine records calls and returns scripted results.
type fakeEngine struct {
	mu           sync.Mutex
	previewErr   error
	snapshotErr  error
	recordErr    error
	frame        Frame
	snapshotDest string
	recordDest   string
	recordOpts   RecordOptions
	previewCalls int
}

func (f *fakeEngine) PreviewFrame(url string) (Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previewCalls++
	if f.previewErr != nil {
		return Frame{}, f.previewErr
	}
	return f.frame, nil
}

func (f *fakeEngine) Snapshot(url, destPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshotDest = destPath
	return f.snapshotErr
}

func (f *fakeEngine) Record(url, destPath string, opts RecordOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordDest = destPath
	f.recordOpts = opts
	return f.recordErr
}

func newFixedService(engine Engine) *Service {
	s := NewService(engine)
	s.now = func() time.Time {
		return time.Date(2026, 8, 24, 14, 30, 0, 0, time.UTC)
	}
	return s
}

func TestServiceRejectsEmptyURL(t *testing.T) {
	s := newFixedService(&fakeEngine{})

	if _, err := s.PreviewFrame("   "); !caperr.Is(err, caperr.ErrConfiguration) {
		t.Errorf("PreviewFrame err = %v, want CONFIGURATION", err)
	}
	if _, err := s.Snapshot("", t.TempDir()); !caperr.Is(err, caperr.ErrConfiguration) {
		t.Errorf("Snapshot err = %v, want CONFIGURATION", err)
	}
	if _, err := s.Record("", t.TempDir(), 5, 5.0, 640, 480); !caperr.Is(err, caperr.ErrConfiguration) {
		t.Errorf("Record err = %v, want CONFIGURATION", err)
	}
}

func TestSnapshotDestinationNaming(t *testing.T) {
	engine := &fakeEngine{}
	s := newFixedService(engine)
	dir := t.TempDir()

	dest, err := s.Snapshot("rtsp://cam1", dir)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	want := filepath.Join(dir, "frame--26-08-24-14-30.png")
	if dest != want {
		t.Errorf("dest = %q, want %q", dest, want)
	}
	if engine.snapshotDest != want {
		t.Errorf("engine dest = %q", engine.snapshotDest)
	}
}

func TestRecordDestinationNamingAndOptions(t *testing.T) {
	engine := &fakeEngine{}
	s := newFixedService(engine)
	dir := t.TempDir()

	dest, err := s.Record("rtsp://cam1", dir, 8, 5.0, 640, 480)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !strings.HasSuffix(dest, "output--26-08-24-14-30.mp4") {
		t.Errorf("dest = %q", dest)
	}
	if engine.recordOpts != (RecordOptions{Seconds: 8, FPS: 5.0, Width: 640, Height: 480}) {
		t.Errorf("opts = %+v", engine.recordOpts)
	}
}

func TestRecordNormalizesDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    int
	}{
		{"zero", 0, DefaultClipSeconds},
		{"negative", -3, DefaultClipSeconds},
		{"positive", 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			s := newFixedService(engine)
			if _, err := s.Record("rtsp://cam1", t.TempDir(), tt.seconds, 5.0, 640, 480); err != nil {
				t.Fatalf("Record failed: %v", err)
			}
			if engine.recordOpts.Seconds != tt.want {
				t.Errorf("Seconds = %d, want %d", engine.recordOpts.Seconds, tt.want)
			}
		})
	}
}

func TestEngineErrorsPropagate(t *testing.T) {
	engine := &fakeEngine{
		snapshotErr: caperr.NewCaptureFailed("could not read a frame from stream URL"),
	}
	s := newFixedService(engine)

	_, err := s.Snapshot("rtsp://cam1", t.TempDir())
	if !caperr.Is(err, caperr.ErrCaptureFailed) {
		t.Errorf("err = %v, want CAPTURE_FAILED", err)
	}
}

func TestPreviewFramePassThrough(t *testing.T) {
	engine := &fakeEngine{frame: Frame{Width: 640, Height: 480, RGB: []byte{1, 2, 3}}}
	s := newFixedService(engine)

	frame, err := s.PreviewFrame("rtsp://cam1")
	if err != nil {
		t.Fatalf("PreviewFrame failed: %v", err)
	}
	if frame.Width != 640 || frame.Height != 480 || len(frame.RGB) != 3 {
		t.Errorf("frame = %+v", frame)
	}
}
