// Package pipeline implements the translation flows for the text, audio and
// image modalities.
//
// Each run is a sequential chain: transcription completes before translation,
// which completes before automatic synthesis. A stage failure writes an inline
// error into the result and stops the run; the coordinator never returns the
// failure as a Go error.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nadzzz/translynk/internal/capture"
	"github.com/nadzzz/translynk/internal/language"
	"github.com/nadzzz/translynk/internal/message"
	"github.com/nadzzz/translynk/internal/speech"
	"github.com/nadzzz/translynk/internal/transcribe"
	"github.com/nadzzz/translynk/internal/translate"
)

// ErrNothingToReplay is returned by Replay when a modality has no translation yet.
var ErrNothingToReplay = errors.New("nothing to replay")

// Transcriber turns captured payloads into text.
type Transcriber interface {
	TranscribeAudio(ctx context.Context, p capture.Payload) (transcribe.Result, error)
	TranscribeImage(ctx context.Context, p capture.Payload) (transcribe.Result, error)
}

// Translator translates text.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (translate.Result, error)
}

// Speaker voices text.
type Speaker interface {
	Speak(ctx context.Context, text, code string) (speech.Path, error)
	SpeakAsync(text, code string)
}

// Recorder runs microphone sessions.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (capture.Payload, error)
}

// Options holds the language defaults.
type Options struct {
	DefaultSource string // audio runs where nothing was detected
	ImageSource   string // OCR has no detection
	DefaultTarget string
}

// Coordinator wires capture, transcription, translation and synthesis.
type Coordinator struct {
	registry    *language.Registry
	transcriber Transcriber
	translator  Translator
	speaker     Speaker  // nil disables synthesis
	recorder    Recorder // nil when no microphone is configured
	opts        Options
	tracer      trace.Tracer

	mu          sync.Mutex
	generations map[message.Modality]uint64
	last        map[message.Modality]spoken
}

type spoken struct {
	text string
	lang string
}

type run struct {
	id       string
	modality message.Modality
	gen      uint64
	start    time.Time
	logger   *slog.Logger
}

// New creates a Coordinator. speaker and recorder may be nil.
func New(registry *language.Registry, transcriber Transcriber, translator Translator, speaker Speaker, recorder Recorder, opts Options) *Coordinator {
	if opts.DefaultSource == "" {
		opts.DefaultSource = "en"
	}
	if opts.ImageSource == "" {
		opts.ImageSource = "en"
	}
	if opts.DefaultTarget == "" {
		opts.DefaultTarget = "es"
	}
	return &Coordinator{
		registry:    registry,
		transcriber: transcriber,
		translator:  translator,
		speaker:     speaker,
		recorder:    recorder,
		opts:        opts,
		tracer:      otel.Tracer("github.com/nadzzz/translynk/internal/pipeline"),
		generations: make(map[message.Modality]uint64),
		last:        make(map[message.Modality]spoken),
	}
}

// Swap exchanges source and target language and text and translation.
func (c *Coordinator) Swap(s message.TextState) message.TextState {
	return s.Swapped()
}

// Translate runs the text modality. It never speaks on its own.
func (c *Coordinator) Translate(ctx context.Context, s message.TextState) message.Result {
	r := c.begin(message.ModalityText)
	source := s.SourceLang
	if source == "" {
		source = c.opts.DefaultSource
	}
	res := c.newResult(r, s.Text, source, s.TargetLang)

	if c.translateStage(ctx, r, &res, message.ErrTranslatingText) {
		c.remember(r, &res)
	}
	return c.finish(r, res)
}

// StartRecording opens the microphone for the audio modality.
func (c *Coordinator) StartRecording(ctx context.Context) error {
	if c.recorder == nil {
		return capture.ErrDeviceUnavailable
	}
	return c.recorder.Start(ctx)
}

// StopRecording finalizes the recording and runs the audio modality on it.
func (c *Coordinator) StopRecording(ctx context.Context, target string) message.Result {
	r := c.begin(message.ModalityAudio)
	res := c.newResult(r, "", "", target)

	if c.recorder == nil {
		r.logger.Error("stop recording without a microphone")
		res.FailSource(message.ErrProcessingAudio)
		return c.finish(r, res)
	}
	payload, err := c.recorder.Stop(ctx)
	if err != nil {
		r.logger.Error("capture failed", "error", err)
		res.FailSource(message.ErrProcessingAudio)
		return c.finish(r, res)
	}
	return c.runAudio(ctx, r, res, payload)
}

// TranslateAudio runs the audio modality on an uploaded recording.
func (c *Coordinator) TranslateAudio(ctx context.Context, payload capture.Payload, target string) message.Result {
	r := c.begin(message.ModalityAudio)
	res := c.newResult(r, "", "", target)
	return c.runAudio(ctx, r, res, payload)
}

func (c *Coordinator) runAudio(ctx context.Context, r run, res message.Result, payload capture.Payload) message.Result {
	tr, ok := c.transcribeStage(ctx, r, &res, "audio", payload, c.transcriber.TranscribeAudio)
	if !ok {
		res.FailSource(message.ErrProcessingAudio)
		return c.finish(r, res)
	}

	res.SourceText = tr.Text
	res.SourceLang = tr.SourceLanguage
	if res.SourceLang == "" {
		res.SourceLang = c.opts.DefaultSource
	}
	res.SourceLangName = c.registry.Name(res.SourceLang)

	if !c.translateStage(ctx, r, &res, message.ErrProcessingAudio) {
		return c.finish(r, res)
	}
	if c.remember(r, &res) {
		res.SpeechPath = string(c.speakStage(ctx, r, res.TranslatedText, res.TargetLang))
	}
	return c.finish(r, res)
}

// TranslateImage runs the image modality. Synthesis is left to the caller.
func (c *Coordinator) TranslateImage(ctx context.Context, filename string, data []byte, target, source string) message.Result {
	r := c.begin(message.ModalityImage)
	if source == "" {
		source = c.opts.ImageSource
	}
	res := c.newResult(r, "", source, target)

	img, err := capture.SelectImage(filename, data)
	if err != nil {
		r.logger.Warn("image rejected", "filename", filename, "error", err)
		res.FailSource(message.ErrProcessingImage)
		return c.finish(r, res)
	}
	res.ImagePreview = img.Preview

	tr, ok := c.transcribeStage(ctx, r, &res, "image", img.Payload, c.transcriber.TranscribeImage)
	if !ok {
		res.FailSource(message.ErrProcessingImage)
		return c.finish(r, res)
	}
	res.SourceText = tr.Text

	if c.translateStage(ctx, r, &res, message.ErrProcessingImage) {
		c.remember(r, &res)
	}
	return c.finish(r, res)
}

// Speak voices text in the background ("Listen").
func (c *Coordinator) Speak(text, code string) {
	if c.speaker == nil || strings.TrimSpace(text) == "" {
		return
	}
	c.speaker.SpeakAsync(text, code)
}

// Replay voices the last translation of a modality again.
func (c *Coordinator) Replay(m message.Modality) error {
	c.mu.Lock()
	last, ok := c.last[m]
	c.mu.Unlock()
	if !ok || strings.TrimSpace(last.text) == "" {
		return ErrNothingToReplay
	}
	c.Speak(last.text, last.lang)
	return nil
}

func (c *Coordinator) begin(m message.Modality) run {
	c.mu.Lock()
	c.generations[m]++
	gen := c.generations[m]
	c.mu.Unlock()

	id := uuid.NewString()
	return run{
		id:       id,
		modality: m,
		gen:      gen,
		start:    time.Now(),
		logger:   slog.With("run_id", id, "modality", string(m)),
	}
}

func (c *Coordinator) newResult(r run, text, source, target string) message.Result {
	if target == "" {
		target = c.opts.DefaultTarget
	}
	res := message.Result{
		RunID:          r.id,
		Modality:       r.modality,
		SourceText:     text,
		SourceLang:     source,
		TargetLang:     target,
		TargetLangName: c.registry.Name(target),
	}
	if source != "" {
		res.SourceLangName = c.registry.Name(source)
	}
	return res
}

// current reports whether r is still the newest run of its modality.
func (c *Coordinator) current(r run) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[r.modality] == r.gen
}

// remember stores the translation for Replay unless the run was superseded.
func (c *Coordinator) remember(r run, res *message.Result) bool {
	if strings.TrimSpace(res.TranslatedText) == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[r.modality] != r.gen {
		return false
	}
	c.last[r.modality] = spoken{text: res.TranslatedText, lang: res.TargetLang}
	return true
}

func (c *Coordinator) finish(r run, res message.Result) message.Result {
	res.Count()
	res.Superseded = !c.current(r)
	r.logger.Info("run complete",
		"duration", time.Since(r.start),
		"source_lang", res.SourceLang,
		"target_lang", res.TargetLang,
		"source_chars", res.SourceChars,
		"translated_chars", res.TranslatedChars,
		"speech_path", res.SpeechPath,
		"superseded", res.Superseded,
		"error", res.Error,
	)
	return res
}

func (c *Coordinator) transcribeStage(ctx context.Context, r run, res *message.Result, kind string, p capture.Payload,
	call func(context.Context, capture.Payload) (transcribe.Result, error),
) (transcribe.Result, bool) {
	ctx, span := c.startSpan(ctx, r, "pipeline.transcribe", attribute.String("translynk.input", kind), attribute.Int("translynk.bytes", len(p.Data)))
	defer span.End()

	tr, err := call(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription failed")
		r.logger.Error("transcription failed", "input", kind, "error", err)
		return transcribe.Result{}, false
	}
	r.logger.Debug("transcription complete", "input", kind, "text_length", len(tr.Text), "detected_lang", tr.SourceLanguage)
	return tr, true
}

// translateStage fills res.TranslatedText. Blank source text short-circuits
// with an empty translation and no call. Returns false on failure.
func (c *Coordinator) translateStage(ctx context.Context, r run, res *message.Result, inline string) bool {
	if strings.TrimSpace(res.SourceText) == "" {
		r.logger.Debug("nothing to translate")
		res.TranslatedText = ""
		return true
	}

	ctx, span := c.startSpan(ctx, r, "pipeline.translate",
		attribute.String("translynk.source_lang", res.SourceLang),
		attribute.String("translynk.target_lang", res.TargetLang))
	defer span.End()

	out, err := c.translator.Translate(ctx, translate.Request{
		Text:           res.SourceText,
		SourceLanguage: res.SourceLang,
		TargetLanguage: res.TargetLang,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "translation failed")
		r.logger.Error("translation failed", "error", err)
		res.Fail(inline)
		return false
	}
	res.TranslatedText = out.TranslatedText
	return true
}

func (c *Coordinator) speakStage(ctx context.Context, r run, text, lang string) speech.Path {
	if c.speaker == nil {
		return speech.PathNone
	}
	ctx, span := c.startSpan(ctx, r, "pipeline.speak", attribute.String("translynk.lang", lang))
	defer span.End()

	path, err := c.speaker.Speak(ctx, text, lang)
	span.SetAttributes(attribute.String("translynk.speech_path", string(path)))
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("automatic speech failed", "error", err)
	}
	return path
}

func (c *Coordinator) startSpan(ctx context.Context, r run, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("translynk.run_id", r.id), attribute.String("translynk.modality", string(r.modality)))
	return c.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Languages returns the language table in display order.
func (c *Coordinator) Languages() []language.Language {
	return c.registry.All()
}
