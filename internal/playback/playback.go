// Package playback sends synthesized audio to the speaker.
package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// Player plays an encoded audio payload.
type Player interface {
	// Play starts playback and returns once the audio has been handed to the
	// output. Cancelling ctx stops playback.
	Play(ctx context.Context, audio []byte, contentType string) error
}

// CommandPlayer pipes audio into an external decoder/player such as
// "ffplay -nodisp -autoexit -" or "aplay -".
type CommandPlayer struct {
	name string
	args []string

	running sync.WaitGroup
}

// NewCommandPlayer creates a player from a command line. The payload is
// written to the command's stdin.
func NewCommandPlayer(command []string) (*CommandPlayer, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("playback: empty command")
	}
	path, err := exec.LookPath(command[0])
	if err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	return &CommandPlayer{name: path, args: append([]string(nil), command[1:]...)}, nil
}

// Play starts the player process and returns without waiting for it to finish.
func (p *CommandPlayer) Play(ctx context.Context, audio []byte, contentType string) error {
	if len(audio) == 0 {
		return errors.New("playback: empty audio")
	}

	cmd := exec.CommandContext(ctx, p.name, p.args...)
	cmd.Stdin = bytes.NewReader(audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("playback: starting %s: %w", p.name, err)
	}
	slog.Debug("playback started", "command", p.name, "bytes", len(audio), "content_type", contentType)

	p.running.Add(1)
	go func() {
		defer p.running.Done()
		err := cmd.Wait()
		switch {
		case ctx.Err() != nil:
			slog.Debug("playback cancelled", "command", p.name)
		case err != nil:
			slog.Warn("playback failed", "command", p.name, "error", err, "stderr", stderr.String())
		}
	}()
	return nil
}

// Wait blocks until every started player process has exited.
func (p *CommandPlayer) Wait() {
	p.running.Wait()
}
