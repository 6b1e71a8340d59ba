package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/translynk/internal/capture"
	"github.com/nadzzz/translynk/internal/config"
)

func newGateway(srv *httptest.Server) *Gateway {
	return New(config.BackendsConfig{
		BaseURL:          srv.URL + "/",
		OCRPath:          "/api/ocr",
		SpeechToTextPath: "/api/speech-to-text",
		Timeout:          2 * time.Second,
		APIKey:           "k3y",
	})
}

func TestTranscribeAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/speech-to-text", r.URL.Path)
		assert.Equal(t, "Bearer k3y", r.Header.Get("Authorization"))

		f, hdr, err := r.FormFile("audio")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "RIFFdata", string(data))
		assert.Equal(t, "recording.wav", hdr.Filename)
		assert.Equal(t, "audio/wav", hdr.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hola mundo","detectedLang":"es"}`))
	}))
	defer srv.Close()

	res, err := newGateway(srv).TranscribeAudio(context.Background(), capture.Payload{Data: []byte("RIFFdata"), ContentType: "audio/wav"})
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "hola mundo", SourceLanguage: "es"}, res)
}

func TestTranscribeImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ocr", r.URL.Path)
		_, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		assert.Equal(t, "menu.png", hdr.Filename)
		_, _ = w.Write([]byte(`{"text":"Soup of the day"}`))
	}))
	defer srv.Close()

	res, err := newGateway(srv).TranscribeImage(context.Background(), capture.Payload{Data: []byte("png"), ContentType: "image/png", Filename: "menu.png"})
	require.NoError(t, err)
	assert.Equal(t, "Soup of the day", res.Text)
	assert.Empty(t, res.SourceLanguage)
}

func TestTranscribeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}, "status 500: model not loaded"},
		{"malformed json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"text":`))
		}, "decoding response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newGateway(srv).TranscribeAudio(context.Background(), capture.Payload{Data: []byte("x")})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "speech-to-text")
		})
	}
}

func TestTranscribeSingleShot(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newGateway(srv).TranscribeImage(context.Background(), capture.Payload{Data: []byte("x")})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestTranscribeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	g := newGateway(srv)
	srv.Close()

	_, err := g.TranscribeAudio(context.Background(), capture.Payload{Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
