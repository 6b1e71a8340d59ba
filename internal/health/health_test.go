package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, s *Server, path string) (int, Status) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return rec.Code, st
}

func TestHealthzAlwaysLive(t *testing.T) {
	s := New(0)
	code, st := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", st.Status)
}

func TestReadyzFollowsReadyFlag(t *testing.T) {
	s := New(0)

	code, st := get(t, s, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", st.Status)

	s.SetReady(true)
	code, st = get(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", st.Status)
	assert.Nil(t, st.Checks)
}

func TestReadyzRunsChecks(t *testing.T) {
	s := New(0)
	s.SetReady(true)

	voicesReady := false
	s.AddCheck("voices", func(context.Context) error {
		if !voicesReady {
			return errors.New("voice inventory not loaded")
		}
		return nil
	})
	s.AddCheck("backends", func(context.Context) error { return nil })

	code, st := get(t, s, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, map[string]string{"voices": "voice inventory not loaded", "backends": "ok"}, st.Checks)

	voicesReady = true
	code, st = get(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"voices": "ok", "backends": "ok"}, st.Checks)
}
