package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/middleware"
	"salespulse/internal/pipeline"
	"salespulse/internal/validation"
)

// uploadFormField is the multipart form field carrying the file.
const uploadFormField = "file"

// UploadHandler serves the JSON analysis API.
type UploadHandler struct {
	service      AnalysisService
	validator    *validation.UploadValidator
	maxSizeBytes int64
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewUploadHandler creates the JSON upload handler.
func NewUploadHandler(service AnalysisService, validator *validation.UploadValidator, maxSizeBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *UploadHandler {
	return &UploadHandler{
		service:      service,
		validator:    validator,
		maxSizeBytes: maxSizeBytes,
		logger:       logger.With(slog.String("component", "upload_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the upload routes.
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/upload", h.AnalyzeUpload)
	return r
}

// AnalyzeUpload handles POST /api/upload.
func (h *UploadHandler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	name, data, apiErr := readUploadedFile(w, r, h.maxSizeBytes, h.validator)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	h.logger.InfoContext(r.Context(), "upload received",
		slog.String("request_id", reqID),
		slog.String("filename", name),
		slog.Int("size_bytes", len(data)))

	result, err := h.service.Analyze(r.Context(), name, data)
	if err != nil {
		var userErr *pipeline.UserError
		if errors.As(err, &userErr) {
			h.errorHandler.HandleError(w, r, apierrors.UnprocessableUpload(userErr.Message))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"status": "success",
		"data":   result,
	})
}

// readUploadedFile extracts and validates the multipart upload. The
// returned *APIError is ready to render.
func readUploadedFile(w http.ResponseWriter, r *http.Request, maxSize int64, v *validation.UploadValidator) (string, []byte, *apierrors.APIError) {
	// Leave headroom for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+64<<10)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, apierrors.ErrFileTooLarge
		}
		return "", nil, apierrors.ErrInvalidRequest
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		return "", nil, apierrors.ErrMissingFile
	}
	defer file.Close()

	if err := v.Validate(validation.MetaFor(header.Filename, header.Size)); err != nil {
		return "", nil, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"INVALID_UPLOAD",
			err.Error(),
			validation.MetaFor(header.Filename, header.Size),
		)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, apierrors.InternalError("failed to read uploaded file")
	}
	return header.Filename, data, nil
}
