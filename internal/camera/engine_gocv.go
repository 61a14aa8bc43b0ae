//go:build !nocv

package camera

import (
	"image"
	"os"
	"time"

	"gocv.io/x/gocv"

	"github.com/mkarlsen/lenscap/internal/errors"
)

// GoCV is the OpenCV-backed capture engine.
type GoCV struct{}

// NewEngine returns the OpenCV-backed engine.
func NewEngine() Engine {
	return &GoCV{}
}

// PreviewFrame opens the stream, reads one frame, and converts it to RGB.
func (g *GoCV) PreviewFrame(url string) (Frame, error) {
	cap, err := gocv.OpenVideoCapture(url)
	if err != nil {
		return Frame{}, errors.NewCaptureFailed("could not open stream URL")
	}
	defer cap.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := cap.Read(&frame); !ok || frame.Empty() {
		return Frame{}, errors.NewCaptureFailed("could not read a frame from stream URL")
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(frame, &rgb, gocv.ColorBGRToRGB)

	return Frame{
		Width:  rgb.Cols(),
		Height: rgb.Rows(),
		RGB:    rgb.ToBytes(),
	}, nil
}

// Snapshot reads one frame and writes it to destPath.
func (g *GoCV) Snapshot(url, destPath string) error {
	cap, err := gocv.OpenVideoCapture(url)
	if err != nil {
		return errors.NewCaptureFailed("could not open stream URL")
	}
	defer cap.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := cap.Read(&frame); !ok || frame.Empty() {
		return errors.NewCaptureFailed("could not read a frame from stream URL")
	}

	if ok := gocv.IMWrite(destPath, frame); !ok {
		return errors.NewCaptureFailed("failed to write the snapshot file")
	}
	return nil
}

// Record captures frames for a wall-clock budget of opts.Seconds and encodes
// them into destPath. Failed reads are skipped; a clip with zero frames is
// removed and reported as a failure rather than left as an empty file.
func (g *GoCV) Record(url, destPath string, opts RecordOptions) error {
	cap, err := gocv.OpenVideoCapture(url)
	if err != nil || !cap.IsOpened() {
		if cap != nil {
			cap.Close()
		}
		return errors.NewCaptureFailed("could not open stream URL")
	}
	defer cap.Close()

	writer, err := gocv.VideoWriterFile(destPath, "mp4v", opts.FPS, opts.Width, opts.Height, true)
	if err != nil || !writer.IsOpened() {
		if writer != nil {
			writer.Close()
		}
		return errors.NewCaptureFailed("could not create video output file")
	}
	defer writer.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	resized := gocv.NewMat()
	defer resized.Close()

	framesWritten := 0
	deadline := time.Now().Add(time.Duration(opts.Seconds) * time.Second)
	for time.Now().Before(deadline) {
		if ok := cap.Read(&frame); !ok || frame.Empty() {
			continue
		}

		out := frame
		if frame.Cols() != opts.Width || frame.Rows() != opts.Height {
			gocv.Resize(frame, &resized, image.Pt(opts.Width, opts.Height), 0, 0, gocv.InterpolationLinear)
			out = resized
		}
		if err := writer.Write(out); err != nil {
			continue
		}
		framesWritten++
	}

	if framesWritten == 0 {
		_ = os.Remove(destPath)
		return errors.NewCaptureFailed("no frames were recorded from stream URL")
	}
	return nil
}
