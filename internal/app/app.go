package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"probecli/internal/config"
	"probecli/internal/dataprocessing"
	apierrors "probecli/internal/errors"
	"probecli/internal/infrastructure"
	customMiddleware "probecli/internal/middleware"
	"probecli/internal/services"
	handlers "probecli/internal/transport/http"
	"probecli/internal/validation"
	"probecli/pkg/contracts"
)

const (
	RepoURL = "https://github.com/probecli/probecli"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Analysis      *services.AnalysisService
	Health        *services.HealthService

	errorHandler *apierrors.ErrorHandler
	startTime    time.Time
}

// NewApplication loads configuration, initializes logging and wires the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires the application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths("")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	logger.Info("Application paths",
		slog.String("data_dir", paths.DataDir),
		slog.String("export_dir", paths.ExportDir),
		slog.String("logs_dir", paths.LogsDir))

	otelProviders, err := infrastructure.InitializeOTel(otelConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
		startTime:     time.Now(),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func otelConfig(cfg *config.Config) *infrastructure.OTelConfig {
	oc := infrastructure.DefaultOTelConfig()
	oc.Environment = cfg.Telemetry.Environment
	oc.EnableMetrics = cfg.Telemetry.EnableMetrics
	oc.EnableTracing = cfg.Telemetry.EnableTracing
	oc.TraceExporter = cfg.Telemetry.TraceExporter
	oc.SampleRatio = cfg.Telemetry.SampleRatio
	return oc
}

// initializeServices builds the analysis pipeline and the health service
func (a *Application) initializeServices() error {
	decoder, err := dataprocessing.NewDecoder(a.Config.Processing.Encodings)
	if err != nil {
		return apierrors.NewConfigError("invalid encodings", err).WithContext("encodings", a.Config.Processing.Encodings)
	}

	opts := []dataprocessing.AggregatorOption{
		dataprocessing.WithWorkers(a.Config.Processing.Workers),
		dataprocessing.WithDecoder(decoder),
	}

	if meter := a.OTelProviders.Meter; meter != nil {
		probeMetrics, err := infrastructure.NewProbeMetrics(meter)
		if err != nil {
			return fmt.Errorf("failed to create probe metrics: %w", err)
		}
		opts = append(opts, dataprocessing.WithMetrics(probeMetrics))

		if err := infrastructure.RegisterSystemMetrics(meter, a.startTime); err != nil {
			return fmt.Errorf("failed to register system metrics: %w", err)
		}
	}

	aggregator := dataprocessing.NewAggregator(a.Logger, opts...)
	validator := validation.NewFileValidator(a.Logger, a.Config.Processing)
	a.Analysis = services.NewAnalysisService(aggregator, validator, a.Logger)

	a.Health = services.NewHealthServiceWithBuildInfo(
		contracts.Version,
		RepoURL,
		contracts.BuildTime,
		contracts.GitCommit,
		config.PathsConfig{
			DataDir:   a.Paths.DataDir,
			ExportDir: a.Paths.ExportDir,
			LogsDir:   a.Paths.LogsDir,
		},
		a.Analysis,
		a.Logger,
	)

	a.Logger.Info("Services initialized",
		slog.Int("workers", aggregator.Workers()),
		slog.Any("encodings", decoder.Encodings()))

	return nil
}

// setupRouter configures the HTTP router with all routes.
// Order: RequestID → RealIP → Logger → Recoverer → SecurityHeaders → CORS → OTel → RateLimit → Timeout
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(infrastructure.WithComponent(a.Logger, "http")))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		infrastructure.WithError(a.Logger, err).Error("Failed to create OpenTelemetry middleware")
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.errorHandler))

	r.Group(func(r chi.Router) {
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)
		})

		// batches can be large; they get the longer request timeout
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

			// multipart framing adds overhead on top of the file contents
			maxBody := a.Config.Processing.MaxFileSize*int64(a.Config.Processing.MaxBatchFiles) + 1<<20
			validationMiddleware := customMiddleware.NewValidationMiddleware(a.Logger, a.errorHandler, maxBody)

			analysisHandler := handlers.NewAnalysisHandler(a.Analysis, validationMiddleware, a.errorHandler, a.Logger)
			r.Mount("/analysis", analysisHandler.Routes())
		})
	})
}

// getCORSConfig builds the CORS policy from the security configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
		},
		ExposedHeaders: []string{
			customMiddleware.RequestIDHeader,
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background. A listen failure cancels ctx.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Server error")
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully shuts down the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	if a.Analysis != nil {
		a.Analysis.Reset(shutdownCtx)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Error shutting down OpenTelemetry")
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")

	return a.Stop(ctx)
}
