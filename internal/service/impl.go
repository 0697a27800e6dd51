package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/citruscircuits/grosbeak/internal/aggregate"
	"github.com/citruscircuits/grosbeak/internal/auth"
	"github.com/citruscircuits/grosbeak/internal/cache"
	"github.com/citruscircuits/grosbeak/internal/config"
	"github.com/citruscircuits/grosbeak/internal/otel"
	"github.com/citruscircuits/grosbeak/internal/registry"
	"github.com/citruscircuits/grosbeak/internal/sources"
	"github.com/citruscircuits/grosbeak/internal/telemetry"
)

// ServiceTracerName is the name used for the service tracer
const ServiceTracerName = "github.com/citruscircuits/grosbeak/service"

// options holds configuration options for the service
type options struct {
	store            sources.Store
	registry         *registry.Registry
	fetchConcurrency int
	cache            cache.ViewCache
	tracer           trace.Tracer
	buildMetrics     *telemetry.BuildMetrics
	cacheMetrics     *telemetry.CacheMetrics
	defaultEventKey  string
}

// Option is a functional option for configuring the service
type Option func(*options) error

// WithStore sets the record store. Required.
func WithStore(store sources.Store) Option {
	return func(o *options) error {
		if store == nil {
			return errors.New("store is required")
		}
		o.store = store
		return nil
	}
}

// WithRegistry overrides the collection registry. Defaults to registry.Default().
func WithRegistry(reg *registry.Registry) Option {
	return func(o *options) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		o.registry = reg
		return nil
	}
}

// WithFetchConcurrency sets how many collections a build fetches in parallel
func WithFetchConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return fmt.Errorf("fetch concurrency must be at least 1, got %d", n)
		}
		o.fetchConcurrency = n
		return nil
	}
}

// WithCache enables the view cache
func WithCache(c cache.ViewCache) Option {
	return func(o *options) error {
		o.cache = c
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// WithMetrics sets the build and cache instruments; nil values disable them
func WithMetrics(build *telemetry.BuildMetrics, cacheMetrics *telemetry.CacheMetrics) Option {
	return func(o *options) error {
		o.buildMetrics = build
		o.cacheMetrics = cacheMetrics
		return nil
	}
}

// WithDefaultEventKey sets the event served when a request names none
func WithDefaultEventKey(eventKey string) Option {
	return func(o *options) error {
		if !config.ValidEventKey(eventKey) {
			return fmt.Errorf("%w: %q", ErrInvalidEventKey, eventKey)
		}
		o.defaultEventKey = eventKey
		return nil
	}
}

// scoutingService implements the Service interface on top of a record store
type scoutingService struct {
	store           sources.Store
	registry        *registry.Registry
	engine          *aggregate.Engine
	cache           cache.ViewCache
	tracer          trace.Tracer
	buildMetrics    *telemetry.BuildMetrics
	cacheMetrics    *telemetry.CacheMetrics
	defaultEventKey string
}

var _ Service = (*scoutingService)(nil)

// New creates a new service with the given options
func New(opts ...Option) (Service, error) {
	o := &options{
		fetchConcurrency: 1,
		defaultEventKey:  "dev",
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.store == nil {
		return nil, errors.New("store is required")
	}
	if o.registry == nil {
		o.registry = registry.Default()
	}

	return &scoutingService{
		store:    o.store,
		registry: o.registry,
		engine: aggregate.NewEngine(o.registry,
			aggregate.WithFetchConcurrency(o.fetchConcurrency),
			aggregate.WithTracer(o.tracer),
		),
		cache:           o.cache,
		tracer:          o.tracer,
		buildMetrics:    o.buildMetrics,
		cacheMetrics:    o.cacheMetrics,
		defaultEventKey: o.defaultEventKey,
	}, nil
}

// CheckReadiness checks that the record store is reachable
func (s *scoutingService) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}

func (s *scoutingService) eventKey(requested string) (string, error) {
	if requested == "" {
		return s.defaultEventKey, nil
	}
	if !config.ValidEventKey(requested) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventKey, requested)
	}
	return requested, nil
}

// GetViewerData returns the aggregated view of an event, from the cache when possible
func (s *scoutingService) GetViewerData(ctx context.Context, req ViewerRequest) (aggregate.View, error) {
	eventKey, err := s.eventKey(req.EventKey)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.StartSpan(ctx, s.tracer, "service.GetViewerData",
		trace.WithAttributes(otel.AttrEventKey.String(eventKey)),
	)
	defer span.End()

	if s.cache != nil {
		view, err := s.cache.Get(ctx, eventKey, req.Options)
		switch {
		case err == nil:
			s.cacheMetrics.RecordLookup(ctx, true)
			span.SetAttributes(otel.AttrCacheHit.Bool(true))
			return view, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.cacheMetrics.RecordLookup(ctx, false)
		default:
			slog.Warn("View cache read failed, rebuilding", "event", eventKey, "error", err)
		}
		span.SetAttributes(otel.AttrCacheHit.Bool(false))
	}

	start := time.Now()
	view, stats, err := s.engine.BuildWithStats(ctx, s.store.Documents(eventKey), req.Options)
	s.buildMetrics.RecordBuild(ctx, eventKey, time.Since(start), stats.Records, err == nil)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to build viewer data for %s: %w", eventKey, err)
	}

	slog.Debug("Built viewer data",
		"event", eventKey,
		"collections", stats.Collections,
		"records", stats.Records,
		"duration", time.Since(start))

	if s.cache != nil {
		if err := s.cache.Set(ctx, eventKey, req.Options, view); err != nil {
			slog.Warn("View cache write failed", "event", eventKey, "error", err)
		}
	}
	return view, nil
}

// ReadCollection returns the raw documents of a registered collection that
// exists in the store
func (s *scoutingService) ReadCollection(ctx context.Context, eventKey, collection string) ([]aggregate.Record, error) {
	eventKey, err := s.eventKey(eventKey)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.StartSpan(ctx, s.tracer, "service.ReadCollection",
		trace.WithAttributes(
			otel.AttrEventKey.String(eventKey),
			otel.AttrCollection.String(collection),
		),
	)
	defer span.End()

	docType, ok := s.registry.TypeOf(collection)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	span.SetAttributes(otel.AttrDocumentType.String(string(docType)))

	present, err := s.store.ListCollections(ctx, eventKey)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	if !slices.Contains(present, collection) {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	records, err := s.store.ReadCollection(ctx, eventKey, collection)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(records)))
	return records, nil
}

// GetStaticFile returns a static file payload of an event
func (s *scoutingService) GetStaticFile(ctx context.Context, fileType, eventKey string) (json.RawMessage, error) {
	if !registry.IsStaticFileType(fileType) {
		return nil, fmt.Errorf("%w: %s", ErrStaticFileTypeNotAllowed, fileType)
	}
	if !config.ValidEventKey(eventKey) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEventKey, eventKey)
	}

	ctx, span := otel.StartSpan(ctx, s.tracer, "service.GetStaticFile",
		trace.WithAttributes(
			otel.AttrEventKey.String(eventKey),
			otel.AttrStaticFileType.String(fileType),
		),
	)
	defer span.End()

	data, err := s.store.StaticFile(ctx, fileType, eventKey)
	if errors.Is(err, sources.ErrStaticFileNotFound) {
		return nil, fmt.Errorf("%w: %s for %s", ErrStaticFileNotFound, fileType, eventKey)
	}
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to read static file: %w", err)
	}
	return data, nil
}

// CreateCredential issues a new API key with the given level
func (s *scoutingService) CreateCredential(ctx context.Context, description string, level int) (*sources.Credential, error) {
	if level < sources.LevelViewer || level > sources.LevelAdmin {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	ctx, span := otel.StartSpan(ctx, s.tracer, "service.CreateCredential")
	defer span.End()

	cred := sources.Credential{
		APIKey:      auth.GenerateAPIKey(),
		Description: description,
		Level:       level,
	}
	if err := s.store.CreateCredential(ctx, cred); err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	slog.Info("Created credential", "description", description, "level", level)
	return &cred, nil
}
