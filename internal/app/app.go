package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"stockwatch/internal/auth"
	"stockwatch/internal/cache"
	"stockwatch/internal/config"
	apierrors "stockwatch/internal/errors"
	"stockwatch/internal/infrastructure"
	customMiddleware "stockwatch/internal/middleware"
	"stockwatch/internal/scraper"
	"stockwatch/internal/services"
	"stockwatch/internal/store"
	handlers "stockwatch/internal/transport/http"
	ws "stockwatch/internal/websocket"
	"stockwatch/pkg/contracts"
)

const AppName = "StockWatch"

// Application is the main application container. All components are
// wired together here at startup.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Router        *chi.Mux
	Server        *http.Server

	Store        *store.Store
	QuoteCache   *cache.QuoteCache
	WebSocketHub *ws.Hub
	Tokens       *auth.TokenManager
	Metrics      *infrastructure.RequestMetrics

	UserService   *services.UserService
	StockService  *services.StockService
	WalletService *services.WalletService
	HealthService *services.HealthService
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the stores, the scraper and the services
func (a *Application) initializeServices() error {
	st, err := store.Open(a.Config.Database.Path, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.Store = st

	a.QuoteCache = cache.NewQuoteCache(a.Config.Quotes.CacheTTL, 1024)

	hub := ws.NewHub(a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	var scraperOpts []scraper.Option
	if a.Config.Scraper.CaptchaAPIKey != "" {
		solver := scraper.NewCaptchaSolver(a.Config.Scraper.CaptchaAPIKey, a.Config.Scraper.CaptchaAPIURL, a.Logger)
		scraperOpts = append(scraperOpts, scraper.WithSolver(solver))
	}
	if a.Config.Scraper.BrowserEnabled {
		browser := scraper.NewBrowserFetcher(a.Config.Scraper.Headless, a.Config.Scraper.Timeout, a.Logger)
		scraperOpts = append(scraperOpts, scraper.WithBrowser(browser))
	}

	quoteScraper, err := scraper.New(a.Config.Scraper, a.Logger, scraperOpts...)
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %w", err)
	}

	metrics, err := infrastructure.NewRequestMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to initialize request metrics: %w", err)
	}
	a.Metrics = metrics

	a.Tokens = auth.NewTokenManager(a.Config.Auth.JWTSecret, a.Config.Auth.TokenTTL)

	a.UserService = services.NewUserService(st, a.Tokens, a.Config.Auth.BcryptCost, a.Logger)
	a.StockService = services.NewStockService(st, a.QuoteCache, quoteScraper, hub, metrics, a.Config.Quotes.Freshness, a.Logger)
	a.WalletService = services.NewWalletService(st, a.StockService, a.Logger)
	a.HealthService = services.NewHealthService(st, a.QuoteCache, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that won't interfere with WebSocket upgrades
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// WebSocket route stays outside the full middleware group so the
	// ResponseWriter is never wrapped before the upgrade
	r.HandleFunc("/ws", ws.Handler(a.WebSocketHub, a.Config.WebSocket, a.Logger))

	// Prometheus scrape endpoint, also outside the group
	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders)
	r.Get("/metrics", metricsHandler.Metrics)

	authn := customMiddleware.NewAuthenticator(a.Tokens, a.Logger)
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	authHandler := handlers.NewAuthHandler(a.UserService, a.Logger, errorHandler)
	stockHandler := handlers.NewStockHandler(a.StockService, a.Logger, errorHandler)
	walletHandler := handlers.NewWalletHandler(a.WalletService, a.Logger, errorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	htmlHandler, err := handlers.NewHTMLHandler(a.UserService, a.StockService, a.WalletService, a.Logger)
	if err != nil {
		a.Logger.Error("Failed to parse HTML templates", slog.String("error", err.Error()))
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Tracing(a.OTelProviders.Tracer))
		r.Use(customMiddleware.Metrics(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins:   a.Config.Security.AllowedOrigins,
			AllowCredentials: true,
			MaxAge:           300,
		}))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/version", healthHandler.Version)
			r.Mount("/auth", authHandler.Routes(authn.Handler))

			r.Group(func(r chi.Router) {
				r.Use(authn.Handler)
				r.Mount("/stocks", stockHandler.Routes())
				r.Mount("/wallet", walletHandler.Routes())
			})
		})

		if htmlHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(authn.RedirectHandler)
				r.Mount("/wallet", htmlHandler.ProtectedRoutes())
			})
			r.Mount("/", htmlHandler.Routes())
		}
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server. Errors other than a clean shutdown
// cancel the supplied context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()
	a.QuoteCache.Stop()

	if err := a.Store.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing store", slog.String("error", err.Error()))
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

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
