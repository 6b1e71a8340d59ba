// Package piper implements the local speech engine on top of a Piper server
// speaking the Wyoming protocol.
//
// The linuxserver/piper container exposes Wyoming on TCP port 10200. The
// engine asks the server for its voice inventory on Start, synthesizes each
// utterance into PCM, wraps it in WAV and hands it to the audio player.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nadzzz/translynk/internal/audio"
	"github.com/nadzzz/translynk/internal/config"
	"github.com/nadzzz/translynk/internal/language"
	"github.com/nadzzz/translynk/internal/playback"
	"github.com/nadzzz/translynk/internal/speech"
	"github.com/nadzzz/translynk/internal/voice"
)

// ErrClosed is returned by Speak after Close.
var ErrClosed = errors.New("piper: engine closed")

// defaultVoices maps base language codes to Piper voice model names. Used
// when the server has no inventory to offer.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"fr": "fr_FR-siwis-medium",
	"es": "es_ES-mls_10246-low",
	"de": "de_DE-thorsten-medium",
	"it": "it_IT-riccardo-x_low",
	"pt": "pt_BR-faber-medium",
	"ru": "ru_RU-ruslan-medium",
	"ja": "ja_JP-amitaro-medium",
	"ko": "ko_KR-kss-x_low",
	"zh": "zh_CN-huayan-medium",
	"ar": "ar_JO-kareem-medium",
	"hi": "hi_IN-pratham-medium",
}

const (
	dialTimeout      = 5 * time.Second
	synthTimeout     = 30 * time.Second
	describeAttempts = 3
	describeBackoff  = 500 * time.Millisecond
)

// Engine implements speech.Engine.
type Engine struct {
	endpoint string
	fallback map[string]string // base code -> voice name
	player   playback.Player

	ready     chan struct{}
	readyOnce sync.Once

	mu        sync.Mutex
	inventory []voice.Voice
	cancels   []context.CancelFunc
	closed    bool
	base      context.Context
	stop      context.CancelFunc
	inflight  sync.WaitGroup

	warnOnce sync.Once
}

var _ speech.Engine = (*Engine)(nil)

// New creates an engine. Call Start to fetch the voice inventory.
func New(cfg config.PiperConfig, player playback.Player) *Engine {
	fallback := make(map[string]string, len(defaultVoices)+len(cfg.Voices))
	for k, v := range defaultVoices {
		fallback[k] = v
	}
	for k, v := range cfg.Voices {
		fallback[k] = v
	}

	endpoint := strings.TrimPrefix(cfg.Endpoint, "tcp://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	base, stop := context.WithCancel(context.Background())
	return &Engine{
		endpoint: endpoint,
		fallback: fallback,
		player:   player,
		ready:    make(chan struct{}),
		base:     base,
		stop:     stop,
	}
}

// Start enumerates the server's voices in the background. If the server never
// answers, the configured voice table becomes the inventory.
func (e *Engine) Start(ctx context.Context) {
	go func() {
		voices, err := e.describe(ctx)
		if err != nil {
			slog.Warn("piper voice inventory unavailable, using configured voices", "endpoint", e.endpoint, "error", err)
			voices = fallbackInventory(e.fallback)
		} else {
			slog.Info("piper voices enumerated", "endpoint", e.endpoint, "count", len(voices))
		}
		e.mu.Lock()
		e.inventory = voices
		e.mu.Unlock()
		e.readyOnce.Do(func() { close(e.ready) })
	}()
}

// Ready is closed once the voice inventory is known.
func (e *Engine) Ready() <-chan struct{} { return e.ready }

// Voices returns a copy of the inventory.
func (e *Engine) Voices() []voice.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]voice.Voice(nil), e.inventory...)
}

// Speak synthesizes and plays u in the background.
func (e *Engine) Speak(u speech.Utterance) error {
	if strings.TrimSpace(u.Text) == "" {
		return errors.New("piper: empty text")
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	ctx, cancel := context.WithCancel(e.base)
	e.cancels = append(e.cancels, cancel)
	e.inflight.Add(1)
	e.mu.Unlock()

	if u.Rate != 1 || u.Pitch != 1 {
		e.warnOnce.Do(func() {
			slog.Info("piper does not support rate or pitch, ignoring", "rate", u.Rate, "pitch", u.Pitch)
		})
	}

	go func() {
		defer e.inflight.Done()
		if err := e.speak(ctx, u); err != nil && ctx.Err() == nil {
			slog.Error("piper utterance failed", "locale", u.Locale, "voice", u.Voice, "error", err)
		}
	}()
	return nil
}

// Cancel stops every utterance started so far.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancels := e.cancels
	e.cancels = nil
	e.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Wait blocks until every started utterance has been handed to the player.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Close cancels all speech and rejects further utterances.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.Cancel()
	e.stop()
	return nil
}

func (e *Engine) speak(ctx context.Context, u speech.Utterance) error {
	name := u.Voice
	if name == "" {
		name = e.fallback[language.Base(u.Locale)]
	}
	if name == "" {
		name = e.fallback["en"]
	}

	wav, err := e.synthesize(ctx, u.Text, name)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return e.player.Play(ctx, wav, audio.ContentTypeWAV)
}

// synthesize runs one synthesize exchange and returns the result as WAV.
func (e *Engine) synthesize(ctx context.Context, text, voiceName string) ([]byte, error) {
	conn, err := e.dial(ctx, synthTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := event{Type: "synthesize", Data: map[string]any{"text": text}}
	if voiceName != "" {
		req.Data["voice"] = map[string]any{"name": voiceName}
	}

	slog.Debug("piper synthesize", "text_length", len(text), "voice", voiceName, "endpoint", e.endpoint)
	if err := writeEvent(conn, req, nil); err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	var (
		pcm    bytes.Buffer
		format = audio.Format{SampleRate: 22050, Channels: 1, BitDepth: 16}
	)
	for {
		evt, payload, err := readEvent(conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			format.SampleRate = intField(evt.Data, "rate", format.SampleRate)
			format.Channels = intField(evt.Data, "channels", format.Channels)
			format.BitDepth = intField(evt.Data, "width", 2) * 8
		case "audio-chunk":
			pcm.Write(payload)
		case "audio-stop":
			slog.Debug("piper audio-stop", "pcm_bytes", pcm.Len())
			return audio.EncodeWAV(pcm.Bytes(), format)
		case "error":
			msg, _ := evt.Data["text"].(string)
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("piper error: %s", msg)
		default:
			slog.Debug("piper ignoring event", "type", evt.Type)
		}
	}
}

// describe asks for the server's inventory, retrying a few times while the
// server comes up.
func (e *Engine) describe(ctx context.Context) ([]voice.Voice, error) {
	var lastErr error
	for attempt := 1; attempt <= describeAttempts; attempt++ {
		voices, err := e.describeOnce(ctx)
		if err == nil {
			return voices, nil
		}
		lastErr = err
		slog.Debug("piper describe failed", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(describeBackoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

func (e *Engine) describeOnce(ctx context.Context) ([]voice.Voice, error) {
	conn, err := e.dial(ctx, dialTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := writeEvent(conn, event{Type: "describe"}, nil); err != nil {
		return nil, fmt.Errorf("sending describe event: %w", err)
	}
	for {
		evt, _, err := readEvent(conn)
		if err != nil {
			return nil, fmt.Errorf("reading describe response: %w", err)
		}
		if evt.Type != "info" {
			continue
		}
		infos := infoVoices(evt)
		if len(infos) == 0 {
			return nil, errors.New("server reported no installed voices")
		}
		voices := make([]voice.Voice, 0, len(infos))
		for _, vi := range infos {
			voices = append(voices, voice.Voice{Locale: normalizeLocale(vi.language), Name: vi.name})
		}
		return voices, nil
	}
}

func (e *Engine) dial(ctx context.Context, deadline time.Duration) (net.Conn, error) {
	if e.endpoint == "" {
		return nil, errors.New("no piper endpoint configured")
	}
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	if d, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(d)
	} else {
		_ = conn.SetDeadline(time.Now().Add(deadline))
	}
	// Unblock reads when the utterance is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	return &cancelConn{Conn: conn, stop: stop}, nil
}

type cancelConn struct {
	net.Conn
	stop func() bool
}

func (c *cancelConn) Close() error {
	c.stop()
	return c.Conn.Close()
}

// normalizeLocale turns Piper's "en_US" into "en-US".
func normalizeLocale(code string) string {
	return strings.ReplaceAll(code, "_", "-")
}

// fallbackInventory derives voices from model names such as "en_US-lessac-medium".
func fallbackInventory(voices map[string]string) []voice.Voice {
	out := make([]voice.Voice, 0, len(voices))
	for base, name := range voices {
		locale := base
		if i := strings.IndexByte(name, '-'); i > 0 {
			locale = name[:i]
		}
		out = append(out, voice.Voice{Locale: normalizeLocale(locale), Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
