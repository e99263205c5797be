package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := chi.NewRouter()
	r.Use(RequestLogger(&logger))
	r.Get("/api/{domain}/options", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/{domain}/options", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cursos/options", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("/api/{domain}/options", "418"))
	assert.Equal(t, before+1, after)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/api/cursos/options", entry["path"])
	assert.Equal(t, "/api/{domain}/options", entry["route"])
	assert.Equal(t, float64(418), entry["status"])
	assert.Equal(t, float64(5), entry["bytes"])
}

func TestRequestLoggerUnmatched(t *testing.T) {
	logger := zerolog.Nop()
	h := RequestLogger(&logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("unmatched", "200"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("unmatched", "200")))
}
