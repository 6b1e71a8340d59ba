// Package transcribe turns captured audio and images into text through the
// remote speech-to-text and OCR services.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nadzzz/translynk/internal/capture"
	"github.com/nadzzz/translynk/internal/config"
)

// Result is the outcome of one transcription.
type Result struct {
	Text string
	// SourceLanguage is the detected language; empty when the service has
	// no detection (OCR) or detected nothing.
	SourceLanguage string
}

// Gateway calls the transcription services. One request per call, no retry.
type Gateway struct {
	ocrURL    string
	speechURL string
	apiKey    string
	client    *http.Client
}

// New creates a gateway from the backends config.
func New(cfg config.BackendsConfig) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &Gateway{
		ocrURL:    base + cfg.OCRPath,
		speechURL: base + cfg.SpeechToTextPath,
		apiKey:    cfg.APIKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// TranscribeAudio uploads a recording as the "audio" field.
func (g *Gateway) TranscribeAudio(ctx context.Context, p capture.Payload) (Result, error) {
	var resp struct {
		Text         string `json:"text"`
		DetectedLang string `json:"detectedLang"`
	}
	if err := g.upload(ctx, g.speechURL, "audio", defaultName(p, "recording.wav"), p, &resp); err != nil {
		return Result{}, fmt.Errorf("speech-to-text: %w", err)
	}
	slog.Debug("speech-to-text complete", "text_length", len(resp.Text), "detected_lang", resp.DetectedLang)
	return Result{Text: resp.Text, SourceLanguage: resp.DetectedLang}, nil
}

// TranscribeImage uploads an image as the "image" field.
func (g *Gateway) TranscribeImage(ctx context.Context, p capture.Payload) (Result, error) {
	var resp struct {
		Text string `json:"text"`
	}
	if err := g.upload(ctx, g.ocrURL, "image", defaultName(p, "image"), p, &resp); err != nil {
		return Result{}, fmt.Errorf("ocr: %w", err)
	}
	slog.Debug("ocr complete", "text_length", len(resp.Text))
	return Result{Text: resp.Text}, nil
}

func (g *Gateway) upload(ctx context.Context, url, field, filename string, p capture.Payload, out any) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if p.ContentType != "" {
		header.Set("Content-Type", p.ContentType)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(p.Data); err != nil {
		return fmt.Errorf("writing %s: %w", field, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	slog.Debug("transcription request", "url", url, "field", field, "bytes", len(p.Data))

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func defaultName(p capture.Payload, fallback string) string {
	if p.Filename != "" {
		return p.Filename
	}
	return fallback
}
