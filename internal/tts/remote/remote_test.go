package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/translynk/internal/config"
	"github.com/nadzzz/translynk/internal/tts"
)

func TestSynthesize(t *testing.T) {
	var got synthesizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-mp3-bytes"))
	}))
	defer srv.Close()

	s := New(config.RemoteTTSConfig{Endpoint: srv.URL})
	res, err := s.Synthesize(context.Background(), "こんにちは", tts.SynthesizeOpts{Language: "ja"})
	require.NoError(t, err)

	assert.Equal(t, synthesizeRequest{Text: "こんにちは", Lang: "ja"}, got)
	assert.Equal(t, []byte("ID3-mp3-bytes"), res.Audio)
	assert.Equal(t, "audio/mpeg", res.ContentType)
}

func TestSynthesizeFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		wantErr string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"TTS failed"}`, http.StatusInternalServerError)
			},
			wantErr: "status 500",
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"No text provided"}`, http.StatusBadRequest)
			},
			wantErr: "status 400",
		},
		{
			name:    "empty body",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
			wantErr: "no audio",
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			wantErr: "remote tts request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s := New(config.RemoteTTSConfig{Endpoint: srv.URL, Timeout: tt.timeout})
			_, err := s.Synthesize(context.Background(), "text", tts.SynthesizeOpts{Language: "ko"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	s := New(config.RemoteTTSConfig{Endpoint: "http://127.0.0.1:1"})
	_, err := s.Synthesize(context.Background(), "", tts.SynthesizeOpts{Language: "ja"})
	assert.Error(t, err)
}

func TestSynthesizeConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := New(config.RemoteTTSConfig{Endpoint: url})
	_, err := s.Synthesize(context.Background(), "text", tts.SynthesizeOpts{Language: "ja"})
	assert.Error(t, err)
}
