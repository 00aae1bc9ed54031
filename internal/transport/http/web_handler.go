package http

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"salespulse/internal/pipeline"
	"salespulse/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"deref":      func(p *float64) float64 { return *p },
	"levelClass": func(l pipeline.AlertLevel) string { return strings.ToLower(string(l)) },
}).ParseFS(templateFS, "templates/*.html"))

// WebHandler serves the upload form and renders analysis results as
// HTML. User-level failures render back into the page, never as 5xx.
type WebHandler struct {
	service      AnalysisService
	validator    *validation.UploadValidator
	maxSizeBytes int64
	logger       *slog.Logger
}

// NewWebHandler creates the HTML handler.
func NewWebHandler(service AnalysisService, validator *validation.UploadValidator, maxSizeBytes int64, logger *slog.Logger) *WebHandler {
	return &WebHandler{
		service:      service,
		validator:    validator,
		maxSizeBytes: maxSizeBytes,
		logger:       logger.With(slog.String("component", "web_handler")),
	}
}

// Routes returns the HTML routes.
func (h *WebHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Index)
	r.Post("/upload", h.Upload)
	return r
}

// pageData feeds the index template. Exactly one of Error and Result is
// set after an upload; both are empty on first load.
type pageData struct {
	Error  string
	Result *pipeline.Result
}

// Index handles GET /.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, pageData{})
}

// Upload handles POST /upload.
func (h *WebHandler) Upload(w http.ResponseWriter, r *http.Request) {
	name, data, apiErr := readUploadedFile(w, r, h.maxSizeBytes, h.validator)
	if apiErr != nil {
		h.renderPage(w, r, apiErr.StatusCode, pageData{Error: apiErr.Message})
		return
	}

	result, err := h.service.Analyze(r.Context(), name, data)
	if err != nil {
		var userErr *pipeline.UserError
		if errors.As(err, &userErr) {
			h.renderPage(w, r, http.StatusUnprocessableEntity, pageData{Error: userErr.Message})
			return
		}
		h.logger.ErrorContext(r.Context(), "analysis failed",
			slog.String("filename", name),
			slog.String("error", err.Error()))
		h.renderPage(w, r, http.StatusInternalServerError, pageData{Error: "Something went wrong on our side. Please try again."})
		return
	}

	h.renderPage(w, r, http.StatusOK, pageData{Result: result})
}

func (h *WebHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.ErrorContext(r.Context(), "template rendering failed",
			slog.String("error", err.Error()))
	}
}
