package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"etfseasonal/internal/charts"
	"etfseasonal/internal/config"
	"etfseasonal/internal/dataset"
	"etfseasonal/internal/errors"
	"etfseasonal/internal/exporter"
	"etfseasonal/internal/files"
	"etfseasonal/internal/infrastructure"
	customMiddleware "etfseasonal/internal/middleware"
	"etfseasonal/internal/services"
	handlers "etfseasonal/internal/transport/http"
	"etfseasonal/internal/validation"
	ws "etfseasonal/internal/websocket"
)

// BuildTime is set at compile time
var BuildTime = "unknown"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	Locator       *dataset.Locator
	Cache         *dataset.RedisCache
	Dashboard     *services.DashboardService
	HealthService *services.HealthService
	WebSocketHub  *ws.Hub
	Renderer      *charts.Renderer
	Exporter      *exporter.Exporter
	ErrorHandler  *errors.ErrorHandler
}

// NewApplication loads the configuration and logger, then wires the
// application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(context.Background(), cfg, logger)
}

// New wires every component from cfg. The HTTP server is created but not
// started.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
	}

	if err := a.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()

	return a, nil
}

// NewSource selects the dataset backend
func NewSource(ctx context.Context, cfg *config.Config, paths *config.Paths) (dataset.Source, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return dataset.NewS3SourceFromConfig(ctx, cfg.Storage)
	case "", "fs":
		return files.NewManager(paths.DatasetDir), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

// NewLocator builds the dataset locator over the configured backend. The
// returned cache is nil unless Redis is enabled and reachable.
func NewLocator(ctx context.Context, cfg *config.Config, paths *config.Paths, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*dataset.Locator, *dataset.RedisCache, error) {
	src, err := NewSource(ctx, cfg, paths)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize dataset source: %w", err)
	}
	logger.InfoContext(ctx, "Dataset source ready",
		slog.String("backend", cfg.Storage.Backend),
		slog.String("bucket", cfg.Storage.Bucket),
		slog.String("dataset_dir", paths.DatasetDir))

	opts := []dataset.Option{
		dataset.WithLogger(logger),
		dataset.WithMetrics(metrics),
		dataset.WithCategories(cfg.Dataset.Categories...),
		dataset.WithEconomicKey(config.EconomicKey(cfg.Dataset)),
	}

	// Redis is a second tier only. The dashboard keeps working without it.
	var cache *dataset.RedisCache
	if cfg.Cache.RedisEnabled {
		cache, err = dataset.NewRedisCache(ctx, cfg.Cache)
		if err != nil {
			logger.WarnContext(ctx, "Redis cache unavailable, continuing with in-process cache only",
				slog.String("error", err.Error()))
			cache = nil
		} else {
			opts = append(opts, dataset.WithCache(cache))
		}
	}

	return dataset.NewLocator(src, opts...), cache, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	locator, cache, err := NewLocator(ctx, a.Config, a.Paths, a.Metrics, a.Logger)
	if err != nil {
		return err
	}
	a.Locator = locator
	a.Cache = cache

	a.Dashboard = services.NewDashboardService(a.Locator,
		services.WithDatasetFiles(a.Config.Dataset),
		services.WithRender(a.Config.Render),
		services.WithDashboardMetrics(a.Metrics),
		services.WithDashboardLogger(a.Logger),
	)

	a.WebSocketHub = ws.NewHub(a.Dashboard,
		ws.WithHubLogger(a.Logger),
		ws.WithHubMetrics(a.Metrics),
		ws.WithHubConfig(a.Config.WebSocket),
		ws.WithRenderTimeout(a.Config.Server.WriteTimeout),
	)
	a.WebSocketHub.Start()

	a.HealthService = services.NewHealthService(config.AppVersion, BuildTime, a.Locator, a.WebSocketHub, a.Logger)
	a.Renderer = charts.NewRenderer(a.Metrics)
	a.Exporter = exporter.NewExporter(a.Paths, a.Metrics, a.Logger)
	a.ErrorHandler = errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// RequestID → RealIP → StripSlashes → Logger → Recoverer → OTel
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.ErrorHandler,
			a.Logger,
		).Handler)
	}
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	// Prometheus text exposition
	r.Mount(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP).Routes())

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.Security.AllowedOrigins, a.ErrorHandler, a.Logger)

	r.Route(config.APIPrefix, func(r chi.Router) {
		// The live session outlives any request timeout
		r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Get("/ws", wsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout, a.Logger))
			r.Use(customMiddleware.Compress(5))
			r.Use(a.ErrorHandler.Middleware)

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)

			optionsHandler := handlers.NewOptionsHandler(a.Dashboard, a.Logger, a.ErrorHandler)
			r.Mount("/options", optionsHandler.Routes())

			dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, a.Renderer, a.Exporter, a.Logger, a.ErrorHandler)
			r.Mount("/dashboard", dashboardHandler.Routes())
		})
	})
}

// getCORSConfig allows the configured origins, plus the local dev server
// outside production.
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: append([]string(nil), a.Config.Security.AllowedOrigins...),
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}

	if a.isDevelopmentMode() {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins,
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		)
	}

	a.Logger.Info("CORS configured",
		slog.Bool("development", a.isDevelopmentMode()),
		slog.Any("allowed_origins", cfg.AllowedOrigins))

	return cfg
}

func (a *Application) isDevelopmentMode() bool {
	if a.Config.Logging.Development {
		return true
	}
	if env := os.Getenv("GO_ENV"); env == "development" {
		return true
	}
	return strings.EqualFold(a.Config.Telemetry.Environment, "development")
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		// WriteTimeout is left unset: it would cut live sessions. API
		// routes are bounded by the Timeout middleware instead.
	}
}

// Start starts the HTTP server in the background. cancel is called if the
// listener fails.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("storage", a.Config.Storage.Backend),
		slog.Bool("redis", a.Cache != nil))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Tell live sessions before their connections go away
	a.WebSocketHub.BroadcastStatus("shutting_down", "Server is shutting down")

	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	a.WebSocketHub.Stop()

	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing redis cache", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck checks the dataset tree and the exports directory
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string
	fv := validation.NewFileValidator(a.Logger)

	if err := fv.ValidateOutputDirectory(a.Paths.ExportsDir); err != nil {
		warnings = append(warnings, err.Error())
	}

	if a.Config.Storage.Backend != "s3" {
		if err := fv.ValidateDatasetDirectory(a.Paths.DatasetDir, a.Config.Dataset.Categories); err != nil {
			warnings = append(warnings, err.Error())
		}
		for _, category := range a.Config.Dataset.Categories {
			latest, ok, err := fv.LatestCollection(a.Paths.DatasetDir, category)
			if err != nil || !ok {
				continue
			}
			if err := fv.ValidateCollectionFile(latest.Path); err != nil {
				warnings = append(warnings, err.Error())
				continue
			}
			a.Logger.InfoContext(ctx, "Dataset freshness",
				slog.String("category", category),
				slog.String("latest", latest.Path),
				slog.Time("modified", latest.ModTime))
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, config.DatasetReadTimeout)
	defer cancel()

	for _, category := range a.Locator.Categories() {
		if len(a.Locator.Tickers(checkCtx, category)) == 0 {
			warnings = append(warnings, fmt.Sprintf("category %s has no tickers", category))
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
