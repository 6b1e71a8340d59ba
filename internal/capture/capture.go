// Package capture owns the microphone session and image selection that feed
// the transcription gateway.
//
// An audio session moves Idle -> Capturing -> Finalizing -> Complete, or to
// Failed on any error. At most one session captures at a time and its device
// is released exactly once, whatever path ends the session.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrPermissionDenied is returned when the user or OS refuses microphone access.
	ErrPermissionDenied = errors.New("microphone access denied")

	// ErrDeviceUnavailable is returned when no capture device can be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrAlreadyCapturing rejects a Start while another session is active.
	ErrAlreadyCapturing = errors.New("a recording is already in progress")

	// ErrNotCapturing rejects a Stop without an active session.
	ErrNotCapturing = errors.New("no recording in progress")
)

// State is a capture session state.
type State string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateFinalizing State = "finalizing"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

// Payload is an assembled capture ready for upload.
type Payload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Device opens capture streams.
type Device interface {
	// Open acquires the device and starts capturing. On error nothing stays
	// acquired.
	Open(ctx context.Context) (Stream, error)
}

// Stream is one acquired capture.
type Stream interface {
	// Chunks delivers captured data. It is closed once the stream has
	// stopped and the last chunk was delivered.
	Chunks() <-chan []byte

	// Stop ends capture. Chunks closes after any pending data.
	Stop() error

	// Assemble joins the captured chunks into one payload.
	Assemble(chunks [][]byte) (Payload, error)

	// Release frees the device.
	Release() error
}

// AudioController runs microphone sessions one at a time.
type AudioController struct {
	device Device

	mu      sync.Mutex
	state   State
	session *session
}

type session struct {
	stream  Stream
	drained chan struct{}
	release sync.Once

	chunksMu sync.Mutex
	chunks   [][]byte
}

// NewAudioController creates a controller for device.
func NewAudioController(device Device) *AudioController {
	return &AudioController{device: device, state: StateIdle}
}

// State returns the state of the current or last session.
func (c *AudioController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start opens the device and begins buffering chunks. ctx bounds only the
// acquisition; the session runs until Stop or Close.
func (c *AudioController) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCapturing || c.state == StateFinalizing {
		return ErrAlreadyCapturing
	}

	stream, err := c.device.Open(ctx)
	if err != nil {
		c.state = StateFailed
		slog.Warn("capture start failed", "error", err)
		if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s := &session{stream: stream, drained: make(chan struct{})}
	go s.collect()

	c.session = s
	c.state = StateCapturing
	slog.Info("capture started")
	return nil
}

// Stop finalizes the active session and returns its payload. The session
// buffer is cleared once the payload is assembled.
func (c *AudioController) Stop(ctx context.Context) (Payload, error) {
	c.mu.Lock()
	if c.state != StateCapturing || c.session == nil {
		c.mu.Unlock()
		return Payload{}, ErrNotCapturing
	}
	s := c.session
	c.state = StateFinalizing
	c.mu.Unlock()

	payload, err := s.finalize(ctx)
	s.releaseDevice()

	c.mu.Lock()
	if c.session == s {
		c.session = nil
		if err != nil {
			c.state = StateFailed
		} else {
			c.state = StateComplete
		}
	}
	c.mu.Unlock()

	if err != nil {
		slog.Warn("capture finalize failed", "error", err)
		return Payload{}, err
	}
	slog.Info("capture complete", "bytes", len(payload.Data), "content_type", payload.ContentType)
	return payload, nil
}

// Close abandons any active session and releases its device.
func (c *AudioController) Close() error {
	c.mu.Lock()
	s := c.session
	c.session = nil
	if s != nil {
		c.state = StateIdle
	}
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	if err := s.stream.Stop(); err != nil {
		slog.Debug("stopping abandoned capture", "error", err)
	}
	return s.releaseDevice()
}

func (s *session) collect() {
	defer close(s.drained)
	for chunk := range s.stream.Chunks() {
		s.chunksMu.Lock()
		s.chunks = append(s.chunks, chunk)
		s.chunksMu.Unlock()
	}
}

func (s *session) finalize(ctx context.Context) (Payload, error) {
	if err := s.stream.Stop(); err != nil {
		return Payload{}, fmt.Errorf("stopping capture: %w", err)
	}

	select {
	case <-s.drained:
	case <-ctx.Done():
		return Payload{}, ctx.Err()
	}

	s.chunksMu.Lock()
	chunks := s.chunks
	s.chunks = nil
	s.chunksMu.Unlock()

	payload, err := s.stream.Assemble(chunks)
	if err != nil {
		return Payload{}, fmt.Errorf("assembling capture: %w", err)
	}
	return payload, nil
}

func (s *session) releaseDevice() error {
	var err error
	s.release.Do(func() {
		err = s.stream.Release()
		if err != nil {
			slog.Warn("releasing capture device", "error", err)
		}
	})
	return err
}
