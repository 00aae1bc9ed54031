// Package app assembles the configuration, logging, metrics and HTTP
// server into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/config"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	custommw "salespulse/internal/middleware"
	"salespulse/internal/services"
	transport "salespulse/internal/transport/http"
	"salespulse/internal/validation"
)

const serviceName = "salespulse"

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Application holds the wired components of the service.
type Application struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *infrastructure.MetricsProviders
	server  *http.Server
}

// New loads configuration and wires every component. The returned
// application is ready to Run.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	metrics, err := infrastructure.InitializeMetrics(serviceName, Version)
	if err != nil {
		return nil, fmt.Errorf("initialize metrics: %w", err)
	}

	uploadMetrics, err := infrastructure.NewUploadMetrics(metrics.Meter)
	if err != nil {
		return nil, fmt.Errorf("register upload metrics: %w", err)
	}

	app := &Application{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.buildRouter(uploadMetrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

func (a *Application) buildRouter(uploadMetrics *infrastructure.UploadMetrics) http.Handler {
	analysisService := services.NewAnalysisService(a.logger, uploadMetrics)
	validator := validation.NewUploadValidator(a.config.Upload.MaxSizeBytes, a.logger)
	errorHandler := apierrors.NewErrorHandler(a.logger)

	uploadHandler := transport.NewUploadHandler(analysisService, validator, a.config.Upload.MaxSizeBytes, a.logger, errorHandler)
	webHandler := transport.NewWebHandler(analysisService, validator, a.config.Upload.MaxSizeBytes, a.logger)
	healthHandler := transport.NewHealthHandler(serviceName, Version)

	r := chi.NewRouter()
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(a.logger))
	r.Use(custommw.Recoverer(a.logger))
	r.Use(custommw.SecurityHeaders)
	r.Use(custommw.Compress(5))

	if a.config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			a.config.Security.RateLimit.RPS,
			a.config.Security.RateLimit.Burst,
			a.logger)
		r.Use(limiter.Handler)
	}

	r.Handle("/metrics", a.metrics.PrometheusHTTP)

	r.Route("/api", func(api chi.Router) {
		api.Use(render.SetContentType(render.ContentTypeJSON))
		api.Get("/health", healthHandler.Health)
		api.Get("/version", healthHandler.Version)
		api.Post("/upload", uploadHandler.AnalyzeUpload)
	})

	r.Get("/", webHandler.Index)
	r.Post("/upload", webHandler.Upload)

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled
// or a SIGINT/SIGTERM arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server listening",
			slog.String("addr", a.server.Addr),
			slog.String("version", Version))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down",
			slog.String("timeout", a.config.Server.ShutdownTimeout.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		if err := a.metrics.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if closeErr := infrastructure.CloseLogFile(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
