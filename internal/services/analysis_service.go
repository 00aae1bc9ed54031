package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"salespulse/internal/infrastructure"
	"salespulse/internal/ingest"
	"salespulse/internal/pipeline"
)

// AnalysisService runs the upload analysis for the transport layer. It
// holds no per-request state; one instance serves all requests.
type AnalysisService struct {
	logger  *slog.Logger
	metrics *infrastructure.UploadMetrics
}

// NewAnalysisService creates the service. metrics may be nil in tests.
func NewAnalysisService(logger *slog.Logger, metrics *infrastructure.UploadMetrics) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		logger:  logger.With(slog.String("component", "analysis_service")),
		metrics: metrics,
	}
}

// Analyze decodes the upload and runs the pipeline. A *pipeline.UserError
// return means the file was understood to be bad, not the service.
func (s *AnalysisService) Analyze(ctx context.Context, fileName string, data []byte) (*pipeline.Result, error) {
	start := time.Now()

	s.logger.InfoContext(ctx, "analyzing upload",
		slog.String("filename", fileName),
		slog.Int("size_bytes", len(data)))

	decoded, err := ingest.DecodeUpload(fileName, data)
	if err != nil {
		s.record(ctx, start, true)
		s.logger.WarnContext(ctx, "upload decoding failed",
			slog.String("filename", fileName),
			slog.String("error", err.Error()))
		return nil, &pipeline.UserError{
			Message: "the file could not be read, make sure it is a valid export",
			Err:     err,
		}
	}

	result, err := pipeline.Process(decoded, fileName)
	if err != nil {
		s.record(ctx, start, true)

		var userErr *pipeline.UserError
		if errors.As(err, &userErr) {
			s.logger.WarnContext(ctx, "upload rejected",
				slog.String("filename", fileName),
				slog.String("reason", userErr.Message))
		} else {
			s.logger.ErrorContext(ctx, "analysis failed",
				slog.String("filename", fileName),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.record(ctx, start, false)
	s.logger.InfoContext(ctx, "analysis completed",
		slog.String("filename", fileName),
		slog.Int("daily_rows", len(result.Daily)),
		slog.Int("alerts", len(result.Alerts)),
		slog.String("level", string(result.Alerts[0].Level)),
		slog.String("duration", time.Since(start).String()))
	return result, nil
}

func (s *AnalysisService) record(ctx context.Context, start time.Time, failed bool) {
	s.metrics.RecordUpload(ctx, time.Since(start).Seconds(), failed)
}
