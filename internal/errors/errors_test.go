package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
}

func TestWrap(t *testing.T) {
	apiErr := New(http.StatusNotFound, "NOT_FOUND", "missing")
	assert.Same(t, apiErr, Wrap(apiErr))

	wrapped := Wrap(fmt.Errorf("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
	assert.Equal(t, "Internal server error", wrapped.Message)

	assert.Nil(t, Wrap(nil))
}

func TestErrorHandler_RendersEnvelope(t *testing.T) {
	h := NewErrorHandler(slog.Default())

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "api error passes through",
			err:        UnprocessableUpload("unrecognized columns"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "UNPROCESSABLE_UPLOAD",
		},
		{
			name:       "plain error becomes internal",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.ErrorCode)
		})
	}
}

func TestErrValidation_Details(t *testing.T) {
	err := ErrValidation("file", "file is required")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "file", detail.Field)
}
