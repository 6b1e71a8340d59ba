package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	chunks      chan []byte
	stopOnce    sync.Once
	stops       atomic.Int32
	releases    atomic.Int32
	assembleErr error
	stopErr     error
}

func newFakeStream(pending ...[]byte) *fakeStream {
	s := &fakeStream{chunks: make(chan []byte, len(pending)+8)}
	for _, c := range pending {
		s.chunks <- c
	}
	return s
}

func (s *fakeStream) Chunks() <-chan []byte { return s.chunks }

func (s *fakeStream) Stop() error {
	s.stops.Add(1)
	s.stopOnce.Do(func() { close(s.chunks) })
	return s.stopErr
}

func (s *fakeStream) Assemble(chunks [][]byte) (Payload, error) {
	if s.assembleErr != nil {
		return Payload{}, s.assembleErr
	}
	return Payload{Data: bytes.Join(chunks, nil), ContentType: "audio/wav", Filename: "recording.wav"}, nil
}

func (s *fakeStream) Release() error {
	s.releases.Add(1)
	return nil
}

type fakeDevice struct {
	mu      sync.Mutex
	err     error
	streams []*fakeStream
	next    func() *fakeStream
}

func (d *fakeDevice) Open(context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	s := newFakeStream()
	if d.next != nil {
		s = d.next()
	}
	d.streams = append(d.streams, s)
	return s, nil
}

func TestStartStopAssemblesChunks(t *testing.T) {
	dev := &fakeDevice{next: func() *fakeStream { return newFakeStream([]byte("ab"), []byte("cd")) }}
	c := NewAudioController(dev)
	assert.Equal(t, StateIdle, c.State())

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateCapturing, c.State())

	p, err := c.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), p.Data)
	assert.Equal(t, "audio/wav", p.ContentType)
	assert.Equal(t, StateComplete, c.State())
	assert.Equal(t, int32(1), dev.streams[0].releases.Load())
}

func TestSecondStartIsRejected(t *testing.T) {
	dev := &fakeDevice{}
	c := NewAudioController(dev)

	require.NoError(t, c.Start(context.Background()))
	err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyCapturing)

	assert.Len(t, dev.streams, 1, "device opened once")
	assert.Equal(t, StateCapturing, c.State(), "first session untouched")
	assert.Zero(t, dev.streams[0].releases.Load())

	_, err = c.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), dev.streams[0].releases.Load())
}

func TestConcurrentStartsAdmitOne(t *testing.T) {
	dev := &fakeDevice{}
	c := NewAudioController(dev)

	var wg sync.WaitGroup
	var ok, rejected atomic.Int32
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := c.Start(context.Background()); {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyCapturing):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(15), rejected.Load())
	require.NoError(t, c.Close())
}

func TestStartPermissionDenied(t *testing.T) {
	c := NewAudioController(&fakeDevice{err: ErrPermissionDenied})

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateFailed, c.State())

	_, err = c.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNotCapturing)
}

func TestStartUnknownDeviceErrorIsUnavailable(t *testing.T) {
	c := NewAudioController(&fakeDevice{err: errors.New("alsa: no such card")})

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.Contains(t, err.Error(), "no such card")
}

func TestFailedSessionCanRestart(t *testing.T) {
	dev := &fakeDevice{err: ErrPermissionDenied}
	c := NewAudioController(dev)
	require.Error(t, c.Start(context.Background()))

	dev.mu.Lock()
	dev.err = nil
	dev.mu.Unlock()
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateCapturing, c.State())
}

func TestAssembleErrorReleasesOnce(t *testing.T) {
	dev := &fakeDevice{next: func() *fakeStream {
		s := newFakeStream([]byte("x"))
		s.assembleErr = errors.New("encoder exploded")
		return s
	}}
	c := NewAudioController(dev)
	require.NoError(t, c.Start(context.Background()))

	_, err := c.Stop(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, int32(1), dev.streams[0].releases.Load())

	require.NoError(t, c.Close())
	assert.Equal(t, int32(1), dev.streams[0].releases.Load())
}

func TestStopHonoursContext(t *testing.T) {
	stuck := &fakeStream{chunks: make(chan []byte)} // never closes
	dev := &fakeDevice{next: func() *fakeStream { return stuck }}
	c := NewAudioController(dev)
	require.NoError(t, c.Start(context.Background()))

	// Stop on the stream does not close a channel it does not own here.
	stuck.stopOnce.Do(func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, int32(1), stuck.releases.Load())
}

func TestCloseDuringCaptureReleasesDevice(t *testing.T) {
	dev := &fakeDevice{}
	c := NewAudioController(dev)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	s := dev.streams[0]
	assert.Equal(t, int32(1), s.releases.Load())
	assert.GreaterOrEqual(t, s.stops.Load(), int32(1))
	assert.Equal(t, StateIdle, c.State())

	_, err := c.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNotCapturing)
}

func TestStopWithoutStart(t *testing.T) {
	c := NewAudioController(&fakeDevice{})
	_, err := c.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNotCapturing)
}
