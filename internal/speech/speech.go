// Package speech bridges the engines to the speech collaborators. The
// callback-style platform APIs are wrapped as single-shot awaitable
// operations with explicit cancellation, and synthesis and recognition
// are kept mutually exclusive.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrUnsupported is reported once at the point of use when the device
// has no working speech path; text interaction stays available.
var ErrUnsupported = errors.New("speech is not supported in this environment")

// ErrListening rejects a second concurrent listen.
var ErrListening = errors.New("speech recognition already active")

// Synthesizer speaks text, blocking until speech finishes, fails, or is
// canceled.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
	// Stop cancels in-progress speech. Safe when nothing is speaking.
	Stop()
}

// Recognizer listens once and yields a single transcript.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Controller enforces the engines' speech contract: speaking never
// blocks the calling flow, starting recognition first cancels any
// in-progress synthesis, and at most one listen runs at a time.
type Controller struct {
	synth Synthesizer
	recog Recognizer

	mu        sync.Mutex
	listening bool
}

// NewController wraps the collaborators. Either may be nil: a nil
// synthesizer makes Speak a no-op, a nil recognizer makes Listen return
// ErrUnsupported.
func NewController(synth Synthesizer, recog Recognizer) *Controller {
	return &Controller{synth: synth, recog: recog}
}

// Speak cancels any current speech and starts speaking text in the
// background. Failures are logged, never surfaced: speech is a side
// effect, not part of the session state machines.
func (c *Controller) Speak(ctx context.Context, text string) {
	if c == nil || c.synth == nil || text == "" {
		return
	}
	c.synth.Stop()
	go func() {
		if err := c.synth.Speak(ctx, text); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("speech synthesis failed", "error", err)
		}
	}()
}

// Stop cancels in-progress speech.
func (c *Controller) Stop() {
	if c == nil || c.synth == nil {
		return
	}
	c.synth.Stop()
}

// Listen cancels in-progress speech, then waits for one transcript.
func (c *Controller) Listen(ctx context.Context) (string, error) {
	if c == nil || c.recog == nil {
		return "", ErrUnsupported
	}

	c.mu.Lock()
	if c.listening {
		c.mu.Unlock()
		return "", ErrListening
	}
	c.listening = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.listening = false
		c.mu.Unlock()
	}()

	c.Stop()
	return c.recog.Listen(ctx)
}
