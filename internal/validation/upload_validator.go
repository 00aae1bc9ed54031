package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UploadMeta describes an uploaded file before its bytes reach the
// pipeline. Extension is derived from the filename, lowercased, with
// the leading dot.
type UploadMeta struct {
	Filename  string `validate:"required,max=255"`
	Size      int64  `validate:"required,gt=0"`
	Extension string `validate:"required,oneof=.csv .txt .tsv .xlsx"`
}

// UploadValidator checks upload metadata against the configured limits.
type UploadValidator struct {
	validate *validator.Validate
	maxSize  int64
	logger   *slog.Logger
}

// NewUploadValidator creates a validator enforcing the given size cap.
func NewUploadValidator(maxSize int64, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		validate: validator.New(),
		maxSize:  maxSize,
		logger:   logger,
	}
}

// MetaFor builds an UploadMeta from a filename and byte size.
func MetaFor(filename string, size int64) UploadMeta {
	return UploadMeta{
		Filename:  filename,
		Size:      size,
		Extension: strings.ToLower(filepath.Ext(filename)),
	}
}

// Validate returns a user-presentable error when the upload must be
// rejected before analysis.
func (v *UploadValidator) Validate(meta UploadMeta) error {
	if err := v.validate.Struct(meta); err != nil {
		v.logger.Warn("upload rejected by validation",
			slog.String("filename", meta.Filename),
			slog.String("extension", meta.Extension),
			slog.String("error", err.Error()))

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Extension":
					return fmt.Errorf("unsupported file type %q: upload a .csv, .txt, .tsv or .xlsx export", meta.Extension)
				case "Size":
					return fmt.Errorf("uploaded file is empty")
				case "Filename":
					return fmt.Errorf("invalid file name")
				}
			}
		}
		return fmt.Errorf("invalid upload: %w", err)
	}

	if meta.Size > v.maxSize {
		v.logger.Warn("upload rejected, too large",
			slog.String("filename", meta.Filename),
			slog.Int64("size", meta.Size),
			slog.Int64("max_size", v.maxSize))
		return fmt.Errorf("uploaded file is too large (%d bytes, limit %d)", meta.Size, v.maxSize)
	}
	return nil
}
