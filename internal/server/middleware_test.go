// internal/server/middleware_test.go
package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"evaldash/internal/common/observability"
)

func TestInstrumentPassesThrough(t *testing.T) {
	obs := observability.New("server-test")
	defer obs.Shutdown()

	wrapped := Instrument(obs, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/suggestions", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
