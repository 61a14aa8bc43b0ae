package main

import (
	"fmt"
	"io"

	"github.com/mkarlsen/lenscap/internal/camera"
	"github.com/mkarlsen/lenscap/internal/errors"
)

// runCompat handles the legacy invocation `lenscap <url> [seconds]`: record
// one clip and report exactly one line on stdout. Returns the process exit
// code.
func runCompat(a *app, args []string, out io.Writer) int {
	url := args[0]

	seconds := a.cfg.ClipSeconds
	if len(args) >= 2 {
		seconds = parseClipSeconds(args[1], a.cfg.ClipSeconds)
	}

	a.urls.MarkUsed(url, nowMilli())

	outputDir, err := a.urls.OutputDir()
	if err != nil {
		fmt.Fprintf(out, "Fail: %s\n", compatMessage(err))
		return 1
	}

	outcome, accepted := a.runner.StartWait(func() (any, error) {
		return a.svc.Record(url, outputDir, seconds, a.cfg.RecordFPS, a.cfg.FrameWidth, a.cfg.FrameHeight)
	})
	if !accepted {
		fmt.Fprintln(out, "Fail: another capture task is already running")
		return 1
	}
	if outcome.Failed {
		if outcome.Failure == camera.InstallHint {
			fmt.Fprintln(out, camera.InstallHint)
		} else {
			fmt.Fprintf(out, "Fail: %s\n", outcome.Failure)
		}
		return 1
	}

	fmt.Fprintln(out, "Success")
	return 0
}

// compatMessage strips the error down to its human-readable text.
func compatMessage(err error) string {
	if capErr, ok := err.(*errors.CapError); ok {
		return capErr.Message
	}
	return err.Error()
}
