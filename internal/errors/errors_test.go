package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
	}{
		{"bad request", InvalidRequestWithError(errors.New("bad json")), http.StatusBadRequest},
		{"not found", New(http.StatusNotFound, CodeNotFound, "ticker XLK not found"), http.StatusNotFound},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"upgrade", ErrWebSocketUpgrade, http.StatusBadRequest},
		{"filesystem", FileSystemError("export", errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.apiError.ErrorCode, body["error_code"])
		})
	}
}

func TestHelpers(t *testing.T) {
	v := ErrValidation("period", "must be between 1 and 12")
	assert.Equal(t, http.StatusBadRequest, v.StatusCode)
	assert.Equal(t, ValidationError{Field: "period", Message: "must be between 1 and 12"}, v.Details)

	inv := InvalidRequestWithError(fmt.Errorf("bad json"))
	assert.Equal(t, "bad json", inv.Details)

	internal := NewInternalError("failed to render chart seasonality")
	assert.Equal(t, http.StatusInternalServerError, internal.StatusCode)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", internal.ErrorCode)
}

func TestAPIError_WithDetailsCopies(t *testing.T) {
	withReason := ErrWebSocketUpgrade.WithDetails("missing upgrade header")

	assert.Equal(t, "missing upgrade header", withReason.Details)
	assert.Equal(t, CodeUpgradeFailed, withReason.ErrorCode)
	assert.Nil(t, ErrWebSocketUpgrade.Details, "shared value must stay untouched")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeDataKeyNotFound, "Table Not Found", "key not found", "/api/dashboard/price").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, TypeDataKeyNotFound, m["type"])
	assert.Equal(t, float64(http.StatusNotFound), m["status"], "standard fields win over extensions")
	assert.Equal(t, "abc", m["trace_id"])
	assert.Equal(t, "/api/dashboard/price", m["instance"])

	empty := &ProblemDetails{Type: TypeInternal, Status: 500}
	empty.WithExtension("k", "v")
	assert.Equal(t, "v", empty.Extensions["k"])
}
