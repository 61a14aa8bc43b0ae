// Package task runs blocking capture operations off the interactive
// goroutine, one at a time.
package task

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/mkarlsen/lenscap/internal/errors"
)

// Task is one blocking capture or record operation. It returns a typed
// result or an error whose text becomes the failure message.
type Task func() (any, error)

// Runner is a single-slot asynchronous executor: it accepts one task at a
// time, rejects while busy, and delivers exactly one success or failure
// callback per accepted task. The slot is released only after the callback
// returns, so no second task can be accepted mid-settlement.
type Runner struct {
	mu   sync.Mutex
	busy bool
	log  zerolog.Logger
}

// NewRunner creates a Runner logging through the given logger.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log}
}

// Busy reports whether a task is currently in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Start begins task on a worker goroutine and returns true, or returns false
// immediately when a previous task is still in flight. There is no queue and
// the in-flight task is never replaced. Exactly one of onSuccess or onFailure
// fires per accepted task; a panicking task settles as a failure.
func (r *Runner) Start(task Task, onSuccess func(any), onFailure func(string)) bool {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return false
	}
	r.busy = true
	r.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	r.log.Debug().Str("task_id", id).Msg("capture task accepted")

	go func() {
		started := time.Now()
		result, err := runTask(task)

		if err != nil {
			msg := failureMessage(err)
			r.log.Warn().
				Str("task_id", id).
				Dur("elapsed", time.Since(started)).
				Msg("capture task failed: " + msg)
			onFailure(msg)
		} else {
			r.log.Debug().
				Str("task_id", id).
				Dur("elapsed", time.Since(started)).
				Msg("capture task succeeded")
			onSuccess(result)
		}

		r.mu.Lock()
		r.busy = false
		r.mu.Unlock()
	}()

	return true
}

// Outcome is a settled task: exactly one of Result or Failure is meaningful.
type Outcome struct {
	Result  any
	Failure string
	Failed  bool
}

// StartWait submits task and blocks until it settles. Accepted is false when
// the slot was busy, in which case no task ran and the outcome is zero. Used
// by request/response surfaces that want the asynchronous contract but have
// nowhere to deliver a callback.
func (r *Runner) StartWait(task Task) (outcome Outcome, accepted bool) {
	settled := make(chan Outcome, 1)
	accepted = r.Start(task,
		func(result any) { settled <- Outcome{Result: result} },
		func(msg string) { settled <- Outcome{Failure: msg, Failed: true} },
	)
	if !accepted {
		return Outcome{}, false
	}
	return <-settled, true
}

// failureMessage extracts the human-readable text delivered to onFailure.
// Typed capture errors carry their message without the code prefix.
func failureMessage(err error) string {
	if capErr, ok := err.(*errors.CapError); ok {
		return capErr.Message
	}
	return err.Error()
}

// runTask invokes the task, converting a panic into an error so the caller
// always receives a settlement.
func runTask(task Task) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return task()
}
