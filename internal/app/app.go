// Package app assembles translynk's components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/translynk/internal/capture"
	"github.com/nadzzz/translynk/internal/capture/malgo"
	"github.com/nadzzz/translynk/internal/config"
	"github.com/nadzzz/translynk/internal/health"
	"github.com/nadzzz/translynk/internal/language"
	"github.com/nadzzz/translynk/internal/pipeline"
	"github.com/nadzzz/translynk/internal/playback"
	"github.com/nadzzz/translynk/internal/speech"
	"github.com/nadzzz/translynk/internal/transcribe"
	"github.com/nadzzz/translynk/internal/translate"
	"github.com/nadzzz/translynk/internal/transport"
	grpctransport "github.com/nadzzz/translynk/internal/transport/grpc"
	httptransport "github.com/nadzzz/translynk/internal/transport/http"
	"github.com/nadzzz/translynk/internal/tts"
	"github.com/nadzzz/translynk/internal/tts/piper"
	"github.com/nadzzz/translynk/internal/tts/remote"
)

// App holds every long-lived component. Optional components are nil when
// disabled by configuration or unavailable on this host.
type App struct {
	Config   *config.Config
	Registry *language.Registry
	Player   playback.Player
	Remote   tts.Synthesizer
	Engine   *piper.Engine
	Speech   *speech.Dispatcher
	Recorder *capture.AudioController
	Pipeline *pipeline.Coordinator

	device capture.Device
}

// Option overrides a component, mainly for tests and hosts without audio hardware.
type Option func(*App)

// WithPlayer sets the audio player instead of the configured command.
func WithPlayer(p playback.Player) Option {
	return func(a *App) { a.Player = p }
}

// WithDevice sets the capture device instead of the system microphone.
func WithDevice(d capture.Device) Option {
	return func(a *App) { a.device = d }
}

// New builds the application. ctx bounds background startup work such as
// voice enumeration.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	registry, err := language.Load(cfg.Languages.File)
	if err != nil {
		return nil, fmt.Errorf("loading languages: %w", err)
	}
	a.Registry = registry

	if cfg.TTS.Enabled {
		a.initSpeech(ctx)
	}
	if cfg.Capture.Enabled {
		if a.device == nil {
			a.device = malgo.New(cfg.Capture.SampleRate, cfg.Capture.Channels)
		}
		a.Recorder = capture.NewAudioController(a.device)
	}

	var speaker pipeline.Speaker
	if a.Speech != nil {
		speaker = a.Speech
	}
	var recorder pipeline.Recorder
	if a.Recorder != nil {
		recorder = a.Recorder
	}
	a.Pipeline = pipeline.New(registry,
		transcribe.New(cfg.Backends),
		translate.New(cfg.Backends),
		speaker,
		recorder,
		pipeline.Options{
			DefaultSource: cfg.Pipeline.DefaultSource,
			ImageSource:   cfg.Pipeline.ImageSource,
			DefaultTarget: cfg.Pipeline.DefaultTarget,
		},
	)

	slog.Info("translynk assembled",
		"languages", len(registry.All()),
		"remote_tts", a.Remote != nil,
		"local_tts", a.Engine != nil,
		"capture", a.Recorder != nil,
		"backends", cfg.Backends.BaseURL)
	return a, nil
}

func (a *App) initSpeech(ctx context.Context) {
	cfg := a.Config.TTS
	if a.Player == nil {
		p, err := playback.NewCommandPlayer(a.Config.Playback.Command)
		if err != nil {
			slog.Warn("audio playback unavailable, speech disabled", "command", a.Config.Playback.Command, "error", err)
			return
		}
		a.Player = p
	}

	if cfg.Remote.Enabled && cfg.Remote.Endpoint != "" {
		a.Remote = remote.New(cfg.Remote)
	}
	var engine speech.Engine
	if cfg.Local.Backend == "piper" {
		a.Engine = piper.New(cfg.Local.Piper, a.Player)
		a.Engine.Start(ctx)
		engine = a.Engine
	}

	a.Speech = speech.New(a.Registry, a.Remote, engine, a.Player, speech.Options{
		NonLatin:  cfg.NonLatin,
		Rate:      cfg.Rate,
		Pitch:     cfg.Pitch,
		VoiceWait: cfg.VoiceWait,
	})
}

// Serve runs the health server and every enabled transport until ctx is
// cancelled or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	var transports []transport.Transport
	var grpcT *grpctransport.Transport
	if a.Config.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(a.Config.Transports.HTTP))
	}
	if a.Config.Transports.GRPC.Enabled {
		grpcT = grpctransport.New(a.Config.Transports.GRPC)
		transports = append(transports, grpcT)
	}
	if len(transports) == 0 {
		return errors.New("no transports enabled, enable at least one in config")
	}

	healthServer := health.New(a.Config.Server.HealthPort)
	if a.Engine != nil {
		healthServer.AddCheck("voices", func(context.Context) error {
			if !a.Speech.VoicesReady() {
				return errors.New("voice inventory not loaded")
			}
			return nil
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return healthServer.ListenAndServe(gctx) })
	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(gctx, a.Pipeline); err != nil {
				return fmt.Errorf("%s transport: %w", t.Name(), err)
			}
			return nil
		})
	}

	healthServer.SetReady(true)
	if grpcT != nil {
		grpcT.SetServing(true)
	}
	slog.Info("translynk ready", "transports", len(transports), "health_port", a.Config.Server.HealthPort)

	err := g.Wait()
	slog.Info("translynk stopped")
	return err
}

// WaitSpeech blocks until started speech has been synthesized and played.
func (a *App) WaitSpeech() {
	if a.Speech != nil {
		a.Speech.Wait()
	}
	if a.Engine != nil {
		a.Engine.Wait()
	}
	if w, ok := a.Player.(interface{ Wait() }); ok {
		w.Wait()
	}
}

// Close releases the microphone and synthesis resources.
func (a *App) Close() error {
	var errs []error
	if a.Recorder != nil {
		errs = append(errs, a.Recorder.Close())
	}
	if a.Engine != nil {
		errs = append(errs, a.Engine.Close())
	}
	if a.Remote != nil {
		errs = append(errs, a.Remote.Close())
	}
	return errors.Join(errs...)
}
