// Package translate calls the remote translation service.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nadzzz/translynk/internal/config"
)

// ErrInvalidRequest is returned for malformed language codes.
var ErrInvalidRequest = errors.New("invalid translation request")

// Request is one translation. Codes need not be in the language registry.
type Request struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLang" validate:"required,langcode"`
	TargetLanguage string `json:"targetLang" validate:"required,langcode"`
}

// Result is the translated text.
type Result struct {
	TranslatedText string `json:"translatedText"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("langcode", func(fl validator.FieldLevel) bool {
		return ValidLanguageCode(fl.Field().String())
	})
	return v
}

// ValidLanguageCode reports whether code is 2-10 ASCII letters, digits or
// hyphens. "auto" passes.
func ValidLanguageCode(code string) bool {
	if len(code) < 2 || len(code) > 10 {
		return false
	}
	for _, c := range code {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

// Gateway calls the translation endpoint. One request per call, no retry.
type Gateway struct {
	url    string
	apiKey string
	client *http.Client
}

// New creates a gateway from the backends config.
func New(cfg config.BackendsConfig) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		url:    strings.TrimRight(cfg.BaseURL, "/") + cfg.TranslatePath,
		apiKey: cfg.APIKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Translate returns the translation of req.Text. Blank text returns an empty
// result without contacting the service.
func (g *Gateway) Translate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, nil
	}
	if err := validate.Struct(req); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshalling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	slog.Debug("translation request", "source_lang", req.SourceLanguage, "target_lang", req.TargetLanguage, "text_length", len(req.Text))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("translation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Result{}, fmt.Errorf("translation failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decoding translation response: %w", err)
	}
	return result, nil
}
