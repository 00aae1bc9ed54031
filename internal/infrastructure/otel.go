package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// MetricsProviders bundles the OpenTelemetry meter provider with the
// Prometheus scrape handler it exports through.
type MetricsProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          api.Meter
	PrometheusHTTP http.Handler
}

// InitializeMetrics wires an OTel meter provider to a dedicated
// Prometheus registry and returns the /metrics handler for it.
func InitializeMetrics(serviceName, version string) (*MetricsProviders, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return &MetricsProviders{
		MeterProvider:  provider,
		Meter:          provider.Meter(serviceName),
		PrometheusHTTP: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *MetricsProviders) Shutdown(ctx context.Context) error {
	if p == nil || p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}

// UploadMetrics holds the business instruments recorded by the analysis
// service.
type UploadMetrics struct {
	UploadsTotal     api.Int64Counter
	UploadFailures   api.Int64Counter
	PipelineDuration api.Float64Histogram
}

// NewUploadMetrics registers the upload instruments on the given meter.
func NewUploadMetrics(meter api.Meter) (*UploadMetrics, error) {
	uploads, err := meter.Int64Counter("salespulse_uploads_total",
		api.WithDescription("Number of uploads analyzed"))
	if err != nil {
		return nil, fmt.Errorf("create uploads counter: %w", err)
	}
	failures, err := meter.Int64Counter("salespulse_upload_failures_total",
		api.WithDescription("Number of uploads rejected with a user-facing error"))
	if err != nil {
		return nil, fmt.Errorf("create failures counter: %w", err)
	}
	duration, err := meter.Float64Histogram("salespulse_pipeline_duration_seconds",
		api.WithDescription("Wall time of the analysis pipeline"),
		api.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	return &UploadMetrics{
		UploadsTotal:     uploads,
		UploadFailures:   failures,
		PipelineDuration: duration,
	}, nil
}

// RecordUpload records one processed upload and its pipeline duration.
func (m *UploadMetrics) RecordUpload(ctx context.Context, seconds float64, failed bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if failed {
		outcome = "failure"
		m.UploadFailures.Add(ctx, 1)
	}
	m.UploadsTotal.Add(ctx, 1, api.WithAttributes(attribute.String("outcome", outcome)))
	m.PipelineDuration.Record(ctx, seconds)
}
