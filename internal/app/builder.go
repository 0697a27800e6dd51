package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/citruscircuits/grosbeak/internal/api"
	"github.com/citruscircuits/grosbeak/internal/auth"
	"github.com/citruscircuits/grosbeak/internal/cache"
	"github.com/citruscircuits/grosbeak/internal/config"
	"github.com/citruscircuits/grosbeak/internal/service"
	"github.com/citruscircuits/grosbeak/internal/sources"
	"github.com/citruscircuits/grosbeak/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// Option is a function that configures the app builder
type Option func(*appConfig) error

// appConfig collects the builder inputs. Component overrides exist mainly
// for tests; production builds everything from config.
type appConfig struct {
	config *config.Config

	// Optional component overrides
	store     sources.Store
	cache     cache.ViewCache
	telemetry *telemetry.Telemetry

	// seedDir is a file store tree copied into the store at startup
	seedDir string

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...Option) (*appConfig, error) {
	cfg := &appConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.config.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) Option {
	return func(cfg *appConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) Option {
	return func(cfg *appConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, ok := strings.Cut(addr, ":")
		if !ok || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *appConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRequestTimeout sets the per-request handler timeout
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive, got %s", d)
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithStore injects a record store instead of building one from config
func WithStore(store sources.Store) Option {
	return func(cfg *appConfig) error {
		cfg.store = store
		return nil
	}
}

// WithCache injects a view cache instead of building one from config
func WithCache(c cache.ViewCache) Option {
	return func(cfg *appConfig) error {
		cfg.cache = c
		return nil
	}
}

// WithTelemetry injects telemetry providers instead of building them from config
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(cfg *appConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithSeedDirectory copies every event of a file store tree into the
// record store before the server starts
func WithSeedDirectory(dir string) Option {
	return func(cfg *appConfig) error {
		cfg.seedDir = dir
		return nil
	}
}

// NewApp builds the application from the given options
func NewApp(ctx context.Context, opts ...Option) (*App, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	components, err := buildComponents(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpServer, err := buildHTTPServer(ctx, cfg, components)
	if err != nil {
		if closeErr := components.close(ctx); closeErr != nil {
			slog.Warn("Failed to release components", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	return &App{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
	}, nil
}

// buildComponents creates telemetry, store, cache and service. Components
// built before a failure are released.
func buildComponents(ctx context.Context, b *appConfig) (_ *Components, err error) {
	slog.Info("Initializing components")

	components := &Components{
		Store:     b.store,
		Cache:     b.cache,
		Telemetry: b.telemetry,
	}
	defer func() {
		if err != nil {
			if closeErr := components.close(ctx); closeErr != nil {
				slog.Warn("Failed to release components", "error", closeErr)
			}
		}
	}()

	if components.Telemetry == nil {
		components.Telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(b.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	if components.Store == nil {
		components.Store, err = sources.NewStore(ctx, b.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create record store: %w", err)
		}
	}

	if b.seedDir != "" {
		if err := seedStore(ctx, b.seedDir, components.Store); err != nil {
			return nil, err
		}
	}

	if components.Cache == nil && b.config.Cache != nil {
		components.Cache, err = cache.NewRedisCache(ctx, b.config.Cache.RedisURL, b.config.Cache.GetCacheTTL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect view cache: %w", err)
		}
	}

	if b.config.AuthEnabled() && b.config.Auth != nil && b.config.Auth.BootstrapAdmin {
		key, err := auth.EnsureAdminCredential(ctx, components.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to bootstrap admin credential: %w", err)
		}
		if key != "" {
			slog.Warn("Created admin API key, store it now as it is not shown again", "api_key", key)
		}
	}

	components.Service, err = buildService(b, components)
	if err != nil {
		return nil, err
	}

	slog.Info("Components initialized successfully",
		"storage", b.config.GetStorageType(),
		"cache", components.Cache != nil,
		"event", b.config.GetEventKey())
	return components, nil
}

// seedStore copies every event of the file tree at dir into store.
func seedStore(ctx context.Context, dir string, store sources.Store) error {
	importer, ok := store.(sources.Importer)
	if !ok {
		return fmt.Errorf("store %T does not support importing", store)
	}
	seed, err := sources.NewFileStore(dir)
	if err != nil {
		return fmt.Errorf("failed to open seed directory: %w", err)
	}
	events, err := seed.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seed events: %w", err)
	}
	for _, event := range events {
		if _, err := sources.Copy(ctx, seed, importer, event); err != nil {
			return fmt.Errorf("failed to seed event %s: %w", event, err)
		}
	}
	return nil
}

func buildService(b *appConfig, components *Components) (service.Service, error) {
	buildMetrics, err := telemetry.NewBuildMetrics(components.Telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create build metrics: %w", err)
	}
	cacheMetrics, err := telemetry.NewCacheMetrics(components.Telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create cache metrics: %w", err)
	}

	opts := []service.Option{
		service.WithStore(components.Store),
		service.WithFetchConcurrency(b.config.GetFetchConcurrency()),
		service.WithDefaultEventKey(b.config.GetEventKey()),
		service.WithTracer(components.Telemetry.Tracer(service.ServiceTracerName)),
		service.WithMetrics(buildMetrics, cacheMetrics),
	}
	if components.Cache != nil {
		opts = append(opts, service.WithCache(components.Cache))
	}

	svc, err := service.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *appConfig,
	components *Components,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing wrap everything, including requests rejected by auth
	metricsMiddleware, err := telemetry.MetricsMiddleware(components.Telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	b.middlewares = append([]func(http.Handler) http.Handler{
		metricsMiddleware,
		telemetry.TracingMiddleware(components.Telemetry.TracerProvider()),
	}, b.middlewares...)

	authMiddleware, err := auth.NewAuthMiddleware(b.config.AuthEnabled(), components.Store, b.config.GetAPIKeyHeader())
	if err != nil {
		return nil, fmt.Errorf("failed to build auth middleware: %w", err)
	}
	b.middlewares = append(b.middlewares, auth.WrapWithPublicPaths(authMiddleware, auth.DefaultPublicPaths))

	router := api.NewServer(components.Service,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(components.Telemetry.PrometheusHandler()),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured",
		"address", b.address,
		"auth", b.config.AuthEnabled(),
		"metrics_endpoint", components.Telemetry.PrometheusHandler() != nil)
	return server, nil
}
