// Package speech voices translated text.
//
// The Dispatcher sends languages from the non-Latin set to the remote
// synthesis backend first and falls back to the local engine on any remote
// failure. Every other language goes straight to the local engine, whose
// voice is picked by the voice resolver once the engine's inventory is known.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nadzzz/translynk/internal/language"
	"github.com/nadzzz/translynk/internal/playback"
	"github.com/nadzzz/translynk/internal/tts"
	"github.com/nadzzz/translynk/internal/voice"
)

// ErrNoSynthesizer is returned when neither path could voice the text.
var ErrNoSynthesizer = errors.New("speech: no synthesizer available")

// Path reports which synthesis strategy handled a Speak call.
type Path string

const (
	PathNone   Path = "none"
	PathRemote Path = "remote"
	PathLocal  Path = "local"
)

// Utterance is one request to the local engine.
type Utterance struct {
	Text   string
	Locale string
	// Voice is the resolved voice name; empty means the engine default for Locale.
	Voice string
	Rate  float64
	Pitch float64
}

// Engine is the local synthesis engine. It is shared by every caller in the
// process.
type Engine interface {
	// Ready is closed once the voice inventory has been enumerated.
	Ready() <-chan struct{}

	// Voices returns the installed voices. Only meaningful after Ready.
	Voices() []voice.Voice

	// Speak starts an utterance and returns without waiting for playback.
	Speak(u Utterance) error

	// Cancel stops every utterance still synthesizing or playing.
	Cancel()
}

// Options holds the dispatcher policy knobs.
type Options struct {
	NonLatin  []string // base subtags routed to the remote backend first
	Rate      float64
	Pitch     float64
	VoiceWait time.Duration // bound on waiting for the voice inventory
}

// Dispatcher selects and drives a synthesis path per call.
type Dispatcher struct {
	registry  *language.Registry
	remote    tts.Synthesizer // nil disables the remote path
	engine    Engine          // nil disables the local path
	player    playback.Player
	nonLatin  map[string]struct{}
	rate      float64
	pitch     float64
	voiceWait time.Duration

	localMu sync.Mutex
	pending sync.WaitGroup
	calls   atomic.Uint64 // sequence of Speak calls; the newest owns the local engine
}

// New creates a Dispatcher. remote, engine and player may be nil.
func New(registry *language.Registry, remote tts.Synthesizer, engine Engine, player playback.Player, opts Options) *Dispatcher {
	nonLatin := make(map[string]struct{}, len(opts.NonLatin))
	for _, code := range opts.NonLatin {
		nonLatin[strings.ToLower(language.Base(code))] = struct{}{}
	}
	rate := opts.Rate
	if rate <= 0 {
		rate = 0.9
	}
	pitch := opts.Pitch
	if pitch <= 0 {
		pitch = 1
	}
	return &Dispatcher{
		registry:  registry,
		remote:    remote,
		engine:    engine,
		player:    player,
		nonLatin:  nonLatin,
		rate:      rate,
		pitch:     pitch,
		voiceWait: opts.VoiceWait,
	}
}

// IsNonLatin reports whether code's base subtag is routed to the remote backend.
func (d *Dispatcher) IsNonLatin(code string) bool {
	_, ok := d.nonLatin[strings.ToLower(language.Base(code))]
	return ok
}

// VoicesReady reports whether the local engine has enumerated its voices.
func (d *Dispatcher) VoicesReady() bool {
	if d.engine == nil {
		return false
	}
	select {
	case <-d.engine.Ready():
		return true
	default:
		return false
	}
}

// Speak voices text in the language identified by code and reports the path
// that handled it. Whitespace-only text is a no-op.
func (d *Dispatcher) Speak(ctx context.Context, text, code string) (Path, error) {
	if strings.TrimSpace(text) == "" {
		return PathNone, nil
	}
	seq := d.calls.Add(1)
	logger := slog.With("language", code, "text_length", len(text))

	if d.remote != nil && d.player != nil && d.IsNonLatin(code) {
		err := d.speakRemote(ctx, text, code)
		if err == nil {
			logger.Info("speech played via remote synthesis")
			return PathRemote, nil
		}
		if d.superseded(seq) {
			logger.Warn("remote synthesis failed, newer speech started, skipping local fallback", "error", err)
			return PathNone, nil
		}
		logger.Warn("remote synthesis failed, falling back to local engine", "error", err)
	}

	if d.engine == nil {
		return PathNone, ErrNoSynthesizer
	}
	return d.speakLocal(ctx, seq, text, code, logger)
}

func (d *Dispatcher) superseded(seq uint64) bool {
	return d.calls.Load() != seq
}

// SpeakAsync is the fire-and-forget form of Speak.
func (d *Dispatcher) SpeakAsync(text, code string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		if _, err := d.Speak(context.Background(), text, code); err != nil {
			slog.Error("speech failed", "language", code, "error", err)
		}
	}()
}

// Wait blocks until every SpeakAsync call has handed its audio to a
// synthesizer or failed.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// speakRemote plays the backend's audio. Remote playback is never cancelled
// by later calls; it may overlap with newer speech.
func (d *Dispatcher) speakRemote(ctx context.Context, text, code string) error {
	res, err := d.remote.Synthesize(ctx, text, tts.SynthesizeOpts{Language: language.Base(code)})
	if err != nil {
		return err
	}
	if err := d.player.Play(context.Background(), res.Audio, res.ContentType); err != nil {
		return fmt.Errorf("playing remote audio: %w", err)
	}
	return nil
}

// speakLocal stops the current local utterance, resolves a voice and submits
// u. It gives up silently once a newer Speak call has started.
func (d *Dispatcher) speakLocal(ctx context.Context, seq uint64, text, code string, logger *slog.Logger) (Path, error) {
	locale := d.registry.VoiceLocaleFor(code)
	u := Utterance{Text: text, Locale: locale, Rate: d.rate, Pitch: d.pitch}

	// Last call wins: whatever the engine is saying now is dropped.
	d.localMu.Lock()
	if d.superseded(seq) {
		d.localMu.Unlock()
		logger.Debug("newer speech started, dropping utterance")
		return PathNone, nil
	}
	d.engine.Cancel()
	d.localMu.Unlock()

	if d.awaitVoices(ctx) {
		if c, ok := voice.Resolve(locale, d.engine.Voices()); ok {
			u.Voice = c.Name
			logger.Debug("voice resolved", "locale", locale, "voice", c.Name, "voice_locale", c.Locale, "exact", c.IsExactMatch)
		} else {
			logger.Debug("no voice for locale, using engine default", "locale", locale)
		}
	} else {
		logger.Warn("voice inventory unavailable, using engine default", "locale", locale, "waited", d.voiceWait)
	}

	d.localMu.Lock()
	defer d.localMu.Unlock()
	if d.superseded(seq) {
		logger.Debug("newer speech started while waiting for voices, dropping utterance")
		return PathNone, nil
	}
	if err := d.engine.Speak(u); err != nil {
		return PathLocal, fmt.Errorf("local synthesis: %w", err)
	}
	logger.Info("speech queued on local engine", "locale", locale, "voice", u.Voice)
	return PathLocal, nil
}

// awaitVoices blocks until the inventory is ready, ctx ends, or voiceWait elapses.
func (d *Dispatcher) awaitVoices(ctx context.Context) bool {
	ready := d.engine.Ready()
	select {
	case <-ready:
		return true
	default:
	}
	if d.voiceWait <= 0 {
		return false
	}

	timer := time.NewTimer(d.voiceWait)
	defer timer.Stop()
	select {
	case <-ready:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
