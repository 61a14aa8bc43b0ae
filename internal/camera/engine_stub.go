//go:build nocv

package camera

import "github.com/mkarlsen/lenscap/internal/errors"

type stubEngine struct{}

// NewEngine returns an engine that reports the capture capability as
// unavailable. Used for builds on hosts without OpenCV.
func NewEngine() Engine {
	return stubEngine{}
}

func (stubEngine) PreviewFrame(string) (Frame, error) {
	return Frame{}, errors.NewDependencyMissing(InstallHint)
}

func (stubEngine) Snapshot(string, string) error {
	return errors.NewDependencyMissing(InstallHint)
}

func (stubEngine) Record(string, string, RecordOptions) error {
	return errors.NewDependencyMissing(InstallHint)
}
