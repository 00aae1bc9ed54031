package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/pipeline"
	"salespulse/internal/validation"
)

type stubAnalysisService struct {
	result   *pipeline.Result
	err      error
	gotName  string
	gotBytes []byte
}

func (s *stubAnalysisService) Analyze(_ context.Context, fileName string, data []byte) (*pipeline.Result, error) {
	s.gotName = fileName
	s.gotBytes = data
	return s.result, s.err
}

func sampleResult() *pipeline.Result {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	metrics := pipeline.DailyMetrics{Date: day, Revenue: 100, Orders: 2, Customers: 2, AOV: 50}
	return &pipeline.Result{
		Filename: "sales.csv",
		Daily:    []pipeline.DailyMetrics{metrics},
		Today:    &metrics,
		Alerts: []pipeline.Alert{{
			Level:  pipeline.LevelOK,
			Title:  "Stability detected",
			Detail: "Revenue in line with the recent average.",
			Action: "Next: add ads and analytics instrumentation for CAC/ROAS.",
		}},
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newUploadHandler(svc AnalysisService, maxSize int64) *UploadHandler {
	logger := slog.Default()
	return NewUploadHandler(svc,
		validation.NewUploadValidator(maxSize, logger),
		maxSize,
		logger,
		apierrors.NewErrorHandler(logger))
}

func postUpload(t *testing.T, h *UploadHandler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeUpload_Success(t *testing.T) {
	svc := &stubAnalysisService{result: sampleResult()}
	h := newUploadHandler(svc, 1<<20)

	body, contentType := multipartBody(t, "file", "sales.csv", []byte("date,amount,customer_id\n2024-01-01,50,A\n"))
	rec := postUpload(t, h, body, contentType)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sales.csv", svc.gotName)

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Contains(t, string(envelope.Data), `"date":"2024-01-01"`)
	assert.Contains(t, string(envelope.Data), `"level":"OK"`)
}

func TestAnalyzeUpload_UserErrorMapsTo422(t *testing.T) {
	svc := &stubAnalysisService{err: &pipeline.UserError{Message: "required columns are missing"}}
	h := newUploadHandler(svc, 1<<20)

	body, contentType := multipartBody(t, "file", "sales.csv", []byte("foo,bar\n1,2\n"))
	rec := postUpload(t, h, body, contentType)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "UNPROCESSABLE_UPLOAD", envelope.Error.ErrorCode)
	assert.Equal(t, "required columns are missing", envelope.Error.Message)
}

func TestAnalyzeUpload_InternalErrorIsMasked(t *testing.T) {
	svc := &stubAnalysisService{err: assert.AnError}
	h := newUploadHandler(svc, 1<<20)

	body, contentType := multipartBody(t, "file", "sales.csv", []byte("date,amount,customer_id\n"))
	rec := postUpload(t, h, body, contentType)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var envelope apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", envelope.Error.ErrorCode)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestAnalyzeUpload_MissingFile(t *testing.T) {
	h := newUploadHandler(&stubAnalysisService{}, 1<<20)

	body, contentType := multipartBody(t, "attachment", "sales.csv", []byte("x"))
	rec := postUpload(t, h, body, contentType)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "MISSING_FILE", envelope.Error.ErrorCode)
}

func TestAnalyzeUpload_UnsupportedExtension(t *testing.T) {
	h := newUploadHandler(&stubAnalysisService{}, 1<<20)

	body, contentType := multipartBody(t, "file", "report.pdf", []byte("%PDF-1.4"))
	rec := postUpload(t, h, body, contentType)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_UPLOAD", envelope.Error.ErrorCode)
	assert.Contains(t, envelope.Error.Message, "unsupported file type")
}

func TestAnalyzeUpload_BodyTooLarge(t *testing.T) {
	h := newUploadHandler(&stubAnalysisService{}, 16)

	body, contentType := multipartBody(t, "file", "sales.csv", bytes.Repeat([]byte("a"), 80<<10))
	rec := postUpload(t, h, body, contentType)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var envelope apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "FILE_TOO_LARGE", envelope.Error.ErrorCode)
}

func TestAnalyzeUpload_FileOverConfiguredLimit(t *testing.T) {
	h := newUploadHandler(&stubAnalysisService{}, 8)

	body, contentType := multipartBody(t, "file", "sales.csv", []byte("date,amount,customer_id\n"))
	rec := postUpload(t, h, body, contentType)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}
