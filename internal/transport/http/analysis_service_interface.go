package http

import (
	"context"

	"salespulse/internal/pipeline"
)

// AnalysisService is the contract handlers depend on, implemented by
// services.AnalysisService.
type AnalysisService interface {
	Analyze(ctx context.Context, fileName string, data []byte) (*pipeline.Result, error)
}
