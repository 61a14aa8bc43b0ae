package camera

import (
	"sync/atomic"
	"time"
)

// Previewer continuously reads frames from a stream at a target FPS and
// hands them to a callback. Stop is cooperative: the flag is checked once
// per iteration, so stop latency is bounded only by the engine's read call.
type Previewer struct {
	service   *Service
	targetFPS float64
	stopped   atomic.Bool
}

// NewPreviewer creates a Previewer over the given service. FPS values below
// 1 are clamped to 1.
func NewPreviewer(service *Service, targetFPS float64) *Previewer {
	if targetFPS < 1 {
		targetFPS = 1
	}
	return &Previewer{service: service, targetFPS: targetFPS}
}

// Stop requests the run loop to exit after its current iteration.
func (p *Previewer) Stop() {
	p.stopped.Store(true)
}

// Run reads frames until Stop is called or a configuration failure occurs,
// delivering each frame to onFrame. A failed read sleeps briefly and
// continues; only pre-flight validation or capability loss ends the loop via
// onFailure. Run blocks and is normally invoked on its own goroutine.
func (p *Previewer) Run(url string, onFrame func(Frame), onFailure func(string)) {
	interval := time.Duration(float64(time.Second) / p.targetFPS)

	for !p.stopped.Load() {
		started := time.Now()

		frame, err := p.service.PreviewFrame(url)
		if err != nil {
			// Configuration and capability errors are terminal; a transient
			// read failure just retries the next iteration.
			if isTerminal(err) {
				onFailure(errMessage(err))
				return
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}

		onFrame(frame)

		if sleepFor := interval - time.Since(started); sleepFor > 0 {
			time.Sleep(sleepFor)
		}
	}
}
