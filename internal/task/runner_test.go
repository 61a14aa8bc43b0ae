package task

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	caperr "github.com/mkarlsen/lenscap/internal/errors"
)

func newTestRunner() *Runner {
	return NewRunner(zerolog.Nop())
}

func TestStartDeliversSuccess(t *testing.T) {
	r := newTestRunner()
	done := make(chan any, 1)

	accepted := r.Start(
		func() (any, error) { return "frame.png", nil },
		func(result any) { done <- result },
		func(msg string) { t.Errorf("unexpected failure: %s", msg) },
	)
	if !accepted {
		t.Fatal("Start should accept on an idle runner")
	}

	select {
	case result := <-done:
		if result != "frame.png" {
			t.Errorf("result = %v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no settlement")
	}
}

func TestStartDeliversFailureMessage(t *testing.T) {
	r := newTestRunner()
	done := make(chan string, 1)

	r.Start(
		func() (any, error) { return nil, errors.New("could not open stream URL") },
		func(any) { t.Error("unexpected success") },
		func(msg string) { done <- msg },
	)

	select {
	case msg := <-done:
		if msg != "could not open stream URL" {
			t.Errorf("message = %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no settlement")
	}
}

func TestPanicSettlesAsFailure(t *testing.T) {
	r := newTestRunner()
	done := make(chan string, 1)

	r.Start(
		func() (any, error) { panic("worker blew up") },
		func(any) { t.Error("unexpected success") },
		func(msg string) { done <- msg },
	)

	select {
	case msg := <-done:
		if msg != "worker blew up" {
			t.Errorf("message = %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no settlement")
	}
}

func TestStartRejectsWhileBusy(t *testing.T) {
	r := newTestRunner()
	release := make(chan struct{})
	done := make(chan any, 1)

	accepted := r.Start(
		func() (any, error) { <-release; return "first", nil },
		func(result any) { done <- result },
		func(msg string) { t.Errorf("unexpected failure: %s", msg) },
	)
	if !accepted {
		t.Fatal("first Start should be accepted")
	}

	if r.Start(
		func() (any, error) { return "second", nil },
		func(any) { t.Error("rejected task must not run") },
		func(string) { t.Error("rejected task must not settle") },
	) {
		t.Error("Start while busy should return false")
	}

	// The rejection must not disturb the in-flight task's settlement.
	close(release)
	select {
	case result := <-done:
		if result != "first" {
			t.Errorf("result = %v", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight task never settled")
	}
}

func TestSlotFreesAfterSettlement(t *testing.T) {
	r := newTestRunner()

	for i := 0; i < 3; i++ {
		done := make(chan struct{})
		if !r.Start(
			func() (any, error) { return i, nil },
			func(any) { close(done) },
			func(msg string) { t.Fatalf("failure: %s", msg) },
		) {
			t.Fatalf("Start %d rejected", i)
		}
		<-done
		// The callback has fired; the slot frees immediately after.
		waitIdle(t, r)
	}
}

func TestExactlyOneCallbackPerTask(t *testing.T) {
	r := newTestRunner()
	var settlements atomic.Int32
	done := make(chan struct{})

	r.Start(
		func() (any, error) { return nil, errors.New("boom") },
		func(any) { settlements.Add(1); close(done) },
		func(string) { settlements.Add(1); close(done) },
	)

	<-done
	waitIdle(t, r)
	if got := settlements.Load(); got != 1 {
		t.Errorf("settlements = %d, want 1", got)
	}
}

func TestTypedErrorsDeliverBareMessage(t *testing.T) {
	r := newTestRunner()
	done := make(chan string, 1)

	r.Start(
		func() (any, error) { return nil, caperr.NewCaptureFailed("no frames were recorded from stream URL") },
		func(any) { t.Error("unexpected success") },
		func(msg string) { done <- msg },
	)

	select {
	case msg := <-done:
		if msg != "no frames were recorded from stream URL" {
			t.Errorf("message = %q, want text without code prefix", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no settlement")
	}
}

func TestStartWait(t *testing.T) {
	r := newTestRunner()

	outcome, accepted := r.StartWait(func() (any, error) { return 42, nil })
	if !accepted {
		t.Fatal("StartWait should accept on an idle runner")
	}
	if outcome.Failed || outcome.Result != 42 {
		t.Errorf("outcome = %+v", outcome)
	}

	waitIdle(t, r)
	outcome, accepted = r.StartWait(func() (any, error) { return nil, errors.New("boom") })
	if !accepted {
		t.Fatal("slot should be free after the first settlement")
	}
	if !outcome.Failed || outcome.Failure != "boom" {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestStartWaitRejectedWhileBusy(t *testing.T) {
	r := newTestRunner()
	release := make(chan struct{})
	done := make(chan struct{})

	r.Start(
		func() (any, error) { <-release; return nil, nil },
		func(any) { close(done) },
		func(string) {},
	)

	if _, accepted := r.StartWait(func() (any, error) { return nil, nil }); accepted {
		t.Error("StartWait should be rejected while busy")
	}

	close(release)
	<-done
}

func waitIdle(t *testing.T, r *Runner) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("runner never went idle")
		}
		time.Sleep(time.Millisecond)
	}
}
