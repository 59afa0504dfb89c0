package speech

import (
	"context"
	"errors"
	"os/exec"
	"sync"
)

// CommandSynthesizer shells out to a local text-to-speech command
// (`say` on macOS, `espeak-ng -v ja` on Linux). The text is passed as
// the final argument.
type CommandSynthesizer struct {
	command string
	args    []string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCommandSynthesizer builds a synthesizer around the given command
// and fixed arguments (voice, locale).
func NewCommandSynthesizer(command string, args ...string) *CommandSynthesizer {
	return &CommandSynthesizer{command: command, args: args}
}

func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	s.Stop()

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	args := make([]string, 0, len(s.args)+1)
	args = append(args, s.args...)
	args = append(args, text)

	err := exec.CommandContext(ctx, s.command, args...).Run()
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		// Canceled speech is not a failure.
		return nil
	}
	return err
}

func (s *CommandSynthesizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
