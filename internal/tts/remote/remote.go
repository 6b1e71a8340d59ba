// Package remote implements tts.Synthesizer against an HTTP synthesis backend.
//
// The backend accepts POST {"text": "...", "lang": "ja"} and answers with the
// encoded audio (typically audio/mpeg) in the response body.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nadzzz/translynk/internal/config"
	"github.com/nadzzz/translynk/internal/tts"
)

const maxAudioBytes = 20 << 20

// Synthesizer calls the remote synthesis endpoint.
type Synthesizer struct {
	endpoint string
	client   *http.Client
}

// New creates a remote synthesizer from config.
func New(cfg config.RemoteTTSConfig) *Synthesizer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Synthesizer{
		endpoint: cfg.Endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type synthesizeRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// Synthesize posts the text to the backend and returns the audio payload.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	bodyBytes, err := json.Marshal(synthesizeRequest{Text: text, Lang: opts.Language})
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("remote tts failed (status %d): %s", resp.StatusCode, respBody)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("reading remote tts audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("remote tts returned no audio")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	slog.Debug("remote tts complete", "language", opts.Language, "audio_bytes", len(audio), "content_type", contentType)
	return &tts.SynthesizeResult{Audio: audio, ContentType: contentType}, nil
}

// Close is a no-op; connections are per-request.
func (s *Synthesizer) Close() error { return nil }
