package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSynthesizer struct {
	mu     sync.Mutex
	spoken []string
	stops  int
	done   chan struct{}
}

func newFakeSynthesizer() *fakeSynthesizer {
	return &fakeSynthesizer{done: make(chan struct{}, 8)}
}

func (s *fakeSynthesizer) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func (s *fakeSynthesizer) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

func (s *fakeSynthesizer) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for speech")
	}
}

type fakeRecognizer struct {
	transcript string
	err        error
	started    chan struct{}
	release    chan struct{}
}

func (r *fakeRecognizer) Listen(ctx context.Context) (string, error) {
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.transcript, r.err
}

func TestSpeakDoesNotBlock(t *testing.T) {
	synth := newFakeSynthesizer()
	controller := NewController(synth, nil)

	controller.Speak(context.Background(), "こんにちは")
	synth.wait(t)

	synth.mu.Lock()
	defer synth.mu.Unlock()
	if len(synth.spoken) != 1 || synth.spoken[0] != "こんにちは" {
		t.Fatalf("unexpected spoken texts: %v", synth.spoken)
	}
	if synth.stops != 1 {
		t.Fatalf("speak must cancel prior speech first, got %d stops", synth.stops)
	}
}

func TestSpeakIgnoresEmptyText(t *testing.T) {
	synth := newFakeSynthesizer()
	controller := NewController(synth, nil)

	controller.Speak(context.Background(), "")

	synth.mu.Lock()
	defer synth.mu.Unlock()
	if len(synth.spoken) != 0 || synth.stops != 0 {
		t.Fatal("empty text must be a no-op")
	}
}

func TestSpeakOnNilController(t *testing.T) {
	var controller *Controller
	controller.Speak(context.Background(), "やあ")
	controller.Stop()
}

func TestListenCancelsSpeechFirst(t *testing.T) {
	synth := newFakeSynthesizer()
	recog := &fakeRecognizer{transcript: "ライオン"}
	controller := NewController(synth, recog)

	got, err := controller.Listen(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "ライオン" {
		t.Fatalf("unexpected transcript: %q", got)
	}

	synth.mu.Lock()
	defer synth.mu.Unlock()
	if synth.stops != 1 {
		t.Fatalf("listen must stop synthesis first, got %d stops", synth.stops)
	}
}

func TestListenWithoutRecognizer(t *testing.T) {
	controller := NewController(newFakeSynthesizer(), nil)
	if _, err := controller.Listen(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestListenRejectsConcurrentListen(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	recog := &fakeRecognizer{transcript: "ねこ", started: started, release: release}
	controller := NewController(nil, recog)

	results := make(chan error, 1)
	go func() {
		_, err := controller.Listen(context.Background())
		results <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first listen never started")
	}

	if _, err := controller.Listen(context.Background()); !errors.Is(err, ErrListening) {
		t.Fatalf("expected ErrListening, got %v", err)
	}

	close(release)
	if err := <-results; err != nil {
		t.Fatalf("first listen must succeed, got %v", err)
	}

	// The guard clears once the listen finishes.
	if _, err := controller.Listen(context.Background()); err != nil {
		t.Fatalf("expected no error after release, got %v", err)
	}
}
