// Package http implements the HTTP transport for translynk.
//
// This transport exposes the text, image and audio flows as a REST API and
// serves the Swagger UI for it. Pipeline runs always answer 200 with the run
// result; stage failures appear inline in the result. 4xx is reserved for
// requests that cannot be run at all.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/nadzzz/translynk/docs" // registers the OpenAPI document
	"github.com/nadzzz/translynk/internal/capture"
	"github.com/nadzzz/translynk/internal/config"
	"github.com/nadzzz/translynk/internal/message"
	"github.com/nadzzz/translynk/internal/pipeline"
	"github.com/nadzzz/translynk/internal/translate"
	"github.com/nadzzz/translynk/internal/transport"
)

const defaultMaxUpload = 25 << 20

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port      int
	maxUpload int64
	server    *http.Server
}

// New creates a new HTTP transport.
func New(cfg config.HTTPConfig) *Transport {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &Transport{port: cfg.Port, maxUpload: maxUpload}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Listen starts the HTTP server. It blocks until ctx is cancelled.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           otelhttp.NewHandler(t.Handler(svc), "translynk.http"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

// Handler returns the API routes for svc.
func (t *Transport) Handler(svc transport.Service) http.Handler {
	h := &handlers{svc: svc, maxUpload: t.maxUpload}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/translate", h.translate)
	mux.HandleFunc("POST /v1/swap", h.swap)
	mux.HandleFunc("POST /v1/ocr", h.ocr)
	mux.HandleFunc("POST /v1/speech", h.speech)
	mux.HandleFunc("POST /v1/record/start", h.recordStart)
	mux.HandleFunc("POST /v1/record/stop", h.recordStop)
	mux.HandleFunc("POST /v1/speak", h.speak)
	mux.HandleFunc("POST /v1/replay/{modality}", h.replay)
	mux.HandleFunc("GET /v1/languages", h.languages)

	// Swagger UI for the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return mux
}

type handlers struct {
	svc       transport.Service
	maxUpload int64
}

// TranslateRequest is the body of POST /v1/translate.
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// StopRequest is the body of POST /v1/record/stop.
type StopRequest struct {
	TargetLang string `json:"target_lang"`
}

// SpeakRequest is the body of POST /v1/speak.
type SpeakRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// ErrorResponse is returned with every 4xx and 5xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StateResponse reports a capture session state.
type StateResponse struct {
	State capture.State `json:"state"`
}

// translate handles POST /v1/translate.
//
// @Summary     Translate text
// @Description Translates typed text. The translation is not spoken; use /v1/speak.
// @Tags        text
// @Accept      json
// @Produce     json
// @Param       request  body      TranslateRequest  true  "Text and languages. source_lang may be \"auto\"."
// @Success     200      {object}  message.Result
// @Failure     400      {object}  ErrorResponse
// @Router      /v1/translate [post]
func (h *handlers) translate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if !validCodes(w, req.SourceLang, req.TargetLang) {
		return
	}
	res := h.svc.Translate(r.Context(), message.TextState{
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
		Text:       req.Text,
	})
	writeJSON(w, http.StatusOK, res)
}

// swap handles POST /v1/swap.
//
// @Summary     Swap languages
// @Description Exchanges source and target languages and moves the translation into the input.
// @Tags        text
// @Accept      json
// @Produce     json
// @Param       state  body      message.TextState  true  "Current text form"
// @Success     200    {object}  message.TextState
// @Failure     400    {object}  ErrorResponse
// @Router      /v1/swap [post]
func (h *handlers) swap(w http.ResponseWriter, r *http.Request) {
	var s message.TextState
	if !decodeJSON(w, r, &s, false) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Swap(s))
}

// ocr handles POST /v1/ocr.
//
// @Summary     Translate text in an image
// @Description Extracts text from the uploaded image and translates it. The source language defaults to English.
// @Tags        image
// @Accept      multipart/form-data
// @Produce     json
// @Param       image        formData  file    true   "Image file"
// @Param       target_lang  formData  string  false  "Target language"
// @Param       source_lang  formData  string  false  "Source language"
// @Success     200          {object}  message.Result
// @Failure     400          {object}  ErrorResponse
// @Failure     413          {object}  ErrorResponse
// @Router      /v1/ocr [post]
func (h *handlers) ocr(w http.ResponseWriter, r *http.Request) {
	data, name, _, ok := h.readUpload(w, r, "image")
	if !ok {
		return
	}
	target, source := r.FormValue("target_lang"), r.FormValue("source_lang")
	if !validCodes(w, source, target) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.TranslateImage(r.Context(), name, data, target, source))
}

// speech handles POST /v1/speech.
//
// @Summary     Translate a recording
// @Description Transcribes the uploaded audio, translates it and speaks the translation.
// @Tags        audio
// @Accept      multipart/form-data
// @Produce     json
// @Param       audio        formData  file    true   "Audio file"
// @Param       target_lang  formData  string  false  "Target language"
// @Success     200          {object}  message.Result
// @Failure     400          {object}  ErrorResponse
// @Failure     413          {object}  ErrorResponse
// @Router      /v1/speech [post]
func (h *handlers) speech(w http.ResponseWriter, r *http.Request) {
	data, name, contentType, ok := h.readUpload(w, r, "audio")
	if !ok {
		return
	}
	target := r.FormValue("target_lang")
	if !validCodes(w, "", target) {
		return
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	payload := capture.Payload{Data: data, ContentType: contentType, Filename: name}
	writeJSON(w, http.StatusOK, h.svc.TranslateAudio(r.Context(), payload, target))
}

// recordStart handles POST /v1/record/start.
//
// @Summary     Start recording
// @Description Opens the microphone. Only one recording may run at a time.
// @Tags        audio
// @Produce     json
// @Success     200  {object}  StateResponse
// @Failure     403  {object}  ErrorResponse  "Microphone access denied"
// @Failure     409  {object}  ErrorResponse  "A recording is already in progress"
// @Failure     503  {object}  ErrorResponse  "No capture device"
// @Router      /v1/record/start [post]
func (h *handlers) recordStart(w http.ResponseWriter, r *http.Request) {
	err := h.svc.StartRecording(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, StateResponse{State: capture.StateCapturing})
	case errors.Is(err, capture.ErrAlreadyCapturing):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, capture.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, capture.ErrPermissionDenied.Error())
	default:
		slog.Error("start recording failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}

// recordStop handles POST /v1/record/stop.
//
// @Summary     Stop recording and translate
// @Description Finalizes the recording, transcribes and translates it, then speaks the translation.
// @Tags        audio
// @Accept      json
// @Produce     json
// @Param       request  body      StopRequest  false  "Target language"
// @Success     200      {object}  message.Result
// @Failure     400      {object}  ErrorResponse
// @Router      /v1/record/stop [post]
func (h *handlers) recordStop(w http.ResponseWriter, r *http.Request) {
	var req StopRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if !validCodes(w, "", req.TargetLang) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.StopRecording(r.Context(), req.TargetLang))
}

// speak handles POST /v1/speak.
//
// @Summary     Speak text
// @Description Voices text in the given language in the background.
// @Tags        speech
// @Accept      json
// @Param       request  body  SpeakRequest  true  "Text and language"
// @Success     202
// @Failure     400  {object}  ErrorResponse
// @Router      /v1/speak [post]
func (h *handlers) speak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Lang == "" {
		writeError(w, http.StatusBadRequest, "lang is required")
		return
	}
	if !validCodes(w, "", req.Lang) {
		return
	}
	h.svc.Speak(req.Text, req.Lang)
	w.WriteHeader(http.StatusAccepted)
}

// replay handles POST /v1/replay/{modality}.
//
// @Summary     Listen again
// @Description Speaks the last translation of a modality again.
// @Tags        speech
// @Param       modality  path  string  true  "text, audio or image"
// @Success     202
// @Failure     400  {object}  ErrorResponse
// @Failure     404  {object}  ErrorResponse
// @Router      /v1/replay/{modality} [post]
func (h *handlers) replay(w http.ResponseWriter, r *http.Request) {
	m, ok := message.ParseModality(r.PathValue("modality"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown modality "+r.PathValue("modality"))
		return
	}
	if err := h.svc.Replay(m); err != nil {
		if errors.Is(err, pipeline.ErrNothingToReplay) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// languages handles GET /v1/languages.
//
// @Summary     List languages
// @Tags        languages
// @Produce     json
// @Success     200  {array}  language.Language
// @Router      /v1/languages [get]
func (h *handlers) languages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Languages())
}

// readUpload reads one multipart file field within the upload limit.
func (h *handlers) readUpload(w http.ResponseWriter, r *http.Request, field string) (data []byte, name, contentType string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxUpload))
			return nil, "", "", false
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return nil, "", "", false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("missing %s file", field))
		return nil, "", "", false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return nil, "", "", false
	}
	return data, header.Filename, header.Header.Get("Content-Type"), true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
	return false
}

// validCodes rejects malformed language codes; empty codes fall back to defaults.
func validCodes(w http.ResponseWriter, codes ...string) bool {
	for _, code := range codes {
		if code != "" && !translate.ValidLanguageCode(code) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid language code %q", code))
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: strings.TrimSpace(msg)})
}
