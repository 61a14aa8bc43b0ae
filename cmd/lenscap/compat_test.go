package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/mkarlsen/lenscap/internal/camera"
	"github.com/mkarlsen/lenscap/internal/errors"
)

func TestCompatSuccess(t *testing.T) {
	a := testApp(t, &fakeEngine{})

	var out bytes.Buffer
	code := runCompat(a, []string{"rtsp://cam1/stream"}, &out)

	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if out.String() != "Success\n" {
		t.Errorf("output = %q", out.String())
	}
	if len(a.urls.Load()) != 1 {
		t.Error("usage should be recorded")
	}
}

func TestCompatSuccessWithSeconds(t *testing.T) {
	a := testApp(t, &fakeEngine{})

	var out bytes.Buffer
	if code := runCompat(a, []string{"rtsp://cam1/stream", "10"}, &out); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if out.String() != "Success\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestCompatFailure(t *testing.T) {
	a := testApp(t, &fakeEngine{recordErr: fmt.Errorf("could not open stream URL")})

	var out bytes.Buffer
	code := runCompat(a, []string{"rtsp://cam1/stream"}, &out)

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if out.String() != "Fail: could not open stream URL\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestCompatTypedFailureBareMessage(t *testing.T) {
	a := testApp(t, &fakeEngine{recordErr: errors.NewCaptureFailed("no frames were recorded from stream URL")})

	var out bytes.Buffer
	code := runCompat(a, []string{"rtsp://cam1/stream"}, &out)

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	// No code tag on the compat surface, only the message.
	if out.String() != "Fail: no frames were recorded from stream URL\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestCompatDependencyMissing(t *testing.T) {
	a := testApp(t, &fakeEngine{recordErr: errors.NewDependencyMissing(camera.InstallHint)})

	var out bytes.Buffer
	code := runCompat(a, []string{"rtsp://cam1/stream"}, &out)

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if out.String() != camera.InstallHint+"\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestCompatInvalidSecondsFallsBack(t *testing.T) {
	for _, arg := range []string{"abc", "0", "-5", "2.5"} {
		t.Run(arg, func(t *testing.T) {
			a := testApp(t, &fakeEngine{})
			var out bytes.Buffer
			if code := runCompat(a, []string{"rtsp://cam1/stream", arg}, &out); code != 0 {
				t.Errorf("exit code = %d, want 0", code)
			}
			if !strings.HasPrefix(out.String(), "Success") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestCompatSingleStatusLine(t *testing.T) {
	a := testApp(t, &fakeEngine{recordErr: fmt.Errorf("boom")})

	var out bytes.Buffer
	runCompat(a, []string{"rtsp://cam1/stream"}, &out)

	if got := strings.Count(out.String(), "\n"); got != 1 {
		t.Errorf("output should be exactly one line, got %d: %q", got, out.String())
	}
}
