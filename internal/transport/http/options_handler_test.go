package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "etfseasonal/internal/errors"
	"etfseasonal/internal/services"
	"etfseasonal/internal/shared/testutil"
)

func newOptionsRouter(t *testing.T, svc DashboardServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewOptionsHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	r.Mount("/api/options", h.Routes())
	return r
}

func TestOptionsHandler_GetOptions(t *testing.T) {
	router := newOptionsRouter(t, newRealService(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/options", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string           `json:"status"`
		Data   services.Options `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Len(t, body.Data.Tabs, 6)
	assert.Contains(t, body.Data.Categories, testutil.FixtureCategory)
	assert.Len(t, body.Data.SeriesGroups, 10)
}

func TestOptionsHandler_GetTickers(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		setup      func(m *MockDashboardService)
		wantStatus int
		wantBody   string
	}{
		{
			name:  "lists tickers",
			query: "?category=ETF_sector",
			setup: func(m *MockDashboardService) {
				m.On("Tickers", mock.Anything, "ETF_sector").Return([]string{"XLB", "XLE"}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"tickers":["XLB","XLE"]`,
		},
		{
			name:       "missing category",
			query:      "",
			setup:      func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "VALIDATION_FAILED",
		},
		{
			name:  "unknown category",
			query: "?category=ETF_bond",
			setup: func(m *MockDashboardService) {
				m.On("Tickers", mock.Anything, "ETF_bond").
					Return(nil, fmt.Errorf("%w: %q", services.ErrUnknownCategory, "ETF_bond"))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Unknown Category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setup(svc)
			router := newOptionsRouter(t, svc)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/options/tickers"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
