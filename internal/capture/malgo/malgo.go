// Package malgo captures microphone audio through miniaudio.
package malgo

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/nadzzz/translynk/internal/audio"
	"github.com/nadzzz/translynk/internal/capture"
)

// chunkBuffer is how many callback periods may queue before data is dropped.
const chunkBuffer = 512

// Device opens the default capture device as signed 16-bit PCM.
type Device struct {
	sampleRate uint32
	channels   uint32
}

var _ capture.Device = (*Device)(nil)

// New creates a microphone device.
func New(sampleRate, channels uint32) *Device {
	return &Device{sampleRate: sampleRate, channels: channels}
}

// Open initializes a miniaudio context and starts capturing.
func (d *Device) Open(ctx context.Context) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	actx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		slog.Debug("miniaudio", "message", strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: initializing audio context: %v", capture.ErrDeviceUnavailable, err)
	}

	s := &stream{
		actx:   actx,
		chunks: make(chan []byte, chunkBuffer),
		format: audio.Format{SampleRate: int(d.sampleRate), Channels: int(d.channels), BitDepth: 16},
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = d.channels
	cfg.SampleRate = d.sampleRate
	cfg.Alsa.NoMMap = 1

	dev, err := malgo.InitDevice(actx.Context, cfg, malgo.DeviceCallbacks{Data: s.onData})
	if err != nil {
		s.freeContext()
		return nil, classify("initializing capture device", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		s.freeContext()
		return nil, classify("starting capture device", err)
	}
	s.dev = dev

	slog.Debug("microphone opened", "sample_rate", d.sampleRate, "channels", d.channels)
	return s, nil
}

func classify(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "denied") || strings.Contains(msg, "permission") {
		return fmt.Errorf("%w: %s: %v", capture.ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: %s: %v", capture.ErrDeviceUnavailable, op, err)
}

type stream struct {
	actx   *malgo.AllocatedContext
	dev    *malgo.Device
	format audio.Format
	chunks chan []byte

	stopOnce sync.Once
	mu       sync.Mutex
	stopped  bool
	dropped  int
}

// onData runs on the audio thread; it must not block.
func (s *stream) onData(_, input []byte, _ uint32) {
	if len(input) == 0 {
		return
	}
	chunk := make([]byte, len(input))
	copy(chunk, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	select {
	case s.chunks <- chunk:
	default:
		s.dropped++
	}
}

func (s *stream) Chunks() <-chan []byte { return s.chunks }

func (s *stream) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		if s.dev != nil {
			err = s.dev.Stop()
		}

		s.mu.Lock()
		s.stopped = true
		close(s.chunks)
		dropped := s.dropped
		s.mu.Unlock()

		if dropped > 0 {
			slog.Warn("microphone chunks dropped", "count", dropped)
		}
	})
	if err != nil {
		return fmt.Errorf("stopping capture device: %w", err)
	}
	return nil
}

func (s *stream) Assemble(chunks [][]byte) (capture.Payload, error) {
	wav, err := audio.EncodeWAV(bytes.Join(chunks, nil), s.format)
	if err != nil {
		return capture.Payload{}, err
	}
	return capture.Payload{Data: wav, ContentType: audio.ContentTypeWAV, Filename: "recording.wav"}, nil
}

func (s *stream) Release() error {
	if s.dev != nil {
		s.dev.Uninit()
		s.dev = nil
	}
	return s.freeContext()
}

func (s *stream) freeContext() error {
	if s.actx == nil {
		return nil
	}
	err := s.actx.Uninit()
	s.actx.Free()
	s.actx = nil
	if err != nil {
		return fmt.Errorf("uninitializing audio context: %w", err)
	}
	return nil
}
