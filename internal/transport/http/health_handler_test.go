package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/dataset"
	"etfseasonal/internal/files"
	"etfseasonal/internal/services"
	"etfseasonal/internal/shared/testutil"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ready := dataset.NewLocator(files.NewManager(testutil.NewDatasetTree(t)))
	empty := dataset.NewLocator(files.NewManager(t.TempDir()))

	tests := []struct {
		name       string
		locator    services.CollectionResolver
		path       string
		wantStatus int
		wantState  string
	}{
		{name: "health", locator: ready, path: "/api/health", wantStatus: http.StatusOK, wantState: "ok"},
		{name: "live", locator: ready, path: "/api/health/live", wantStatus: http.StatusOK, wantState: "alive"},
		{name: "ready", locator: ready, path: "/api/health/ready", wantStatus: http.StatusOK, wantState: "ready"},
		{name: "not ready", locator: empty, path: "/api/health/ready", wantStatus: http.StatusServiceUnavailable, wantState: "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := services.NewHealthService("test", "", tt.locator, nil, logger)
			r := chi.NewRouter()
			r.Mount("/api/health", NewHealthHandler(svc, logger).Routes())

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			var status services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, tt.wantState, status.Status)
			assert.Equal(t, "test", status.Version)
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	r := chi.NewRouter()
	r.Mount("/metrics", NewMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# HELP tab_renders_total"))
	})).Routes())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tab_renders_total")

	rec = httptest.NewRecorder()
	nf := chi.NewRouter()
	nf.Mount("/metrics", NewMetricsHandler(nil).Routes())
	nf.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
