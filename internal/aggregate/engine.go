package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/citruscircuits/grosbeak/internal/otel"
	"github.com/citruscircuits/grosbeak/internal/registry"
)

// Engine builds Views from a DataSource according to a registry. An Engine
// holds no per-build state and may be shared between goroutines; every
// Build allocates its own result.
type Engine struct {
	registry         *registry.Registry
	fetchConcurrency int
	tracer           trace.Tracer
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithFetchConcurrency prefetches up to n collections in parallel. Records
// are still merged in registry order once every fetch has completed. Values
// below 2 keep the default streaming, one-collection-at-a-time behaviour.
func WithFetchConcurrency(n int) EngineOption {
	return func(e *Engine) {
		e.fetchConcurrency = n
	}
}

// WithTracer sets the tracer used for build spans.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// NewEngine creates an engine for the given registry.
func NewEngine(reg *registry.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:         reg,
		fetchConcurrency: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Build aggregates src with the engine's registry. See BuildWithStats.
func (e *Engine) Build(ctx context.Context, src DataSource, opts Options) (View, error) {
	view, _, err := e.BuildWithStats(ctx, src, opts)
	return view, err
}

// BuildWithStats reads every registered collection not listed in
// opts.IgnoredCollections, in registry order, and merges each record into the
// leaf addressed by its natural key. Fields of later collections overwrite
// fields of earlier ones; fields only present earlier are kept.
//
// Any error (a missing key field, a source failure or context cancellation)
// aborts the build and no View is returned.
func (e *Engine) BuildWithStats(ctx context.Context, src DataSource, opts Options) (View, BuildStats, error) {
	ctx, span := otel.StartSpan(ctx, e.tracer, "aggregate.Build",
		trace.WithAttributes(attribute.Bool("aggregate.use_strings", opts.UseStrings)),
	)
	defer span.End()

	var (
		view  View
		stats BuildStats
		err   error
	)
	if e.fetchConcurrency > 1 {
		view, stats, err = e.buildPrefetched(ctx, src, opts)
	} else {
		view, stats, err = e.buildStreaming(ctx, src, opts)
	}
	if err != nil {
		otel.RecordError(span, err)
		return nil, BuildStats{}, err
	}

	span.SetAttributes(
		otel.AttrCollectionCount.Int(stats.Collections),
		otel.AttrResultCount.Int(stats.Records),
	)
	return view, stats, nil
}

func (e *Engine) buildStreaming(ctx context.Context, src DataSource, opts Options) (View, BuildStats, error) {
	view := e.newView()
	var stats BuildStats

	for _, desc := range e.collections(opts) {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Collections++

		for record, err := range src.Fetch(ctx, desc.Collection) {
			if err != nil {
				return nil, stats, fmt.Errorf("failed to fetch collection %s: %w", desc.Collection, err)
			}
			if err := e.merge(view, desc, record, opts); err != nil {
				return nil, stats, err
			}
			stats.Records++
		}
	}

	return view, stats, nil
}

func (e *Engine) buildPrefetched(ctx context.Context, src DataSource, opts Options) (View, BuildStats, error) {
	descs := e.collections(opts)
	fetched := make([][]Record, len(descs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fetchConcurrency)
	for i, desc := range descs {
		g.Go(func() error {
			var records []Record
			for record, err := range src.Fetch(gctx, desc.Collection) {
				if err != nil {
					return fmt.Errorf("failed to fetch collection %s: %w", desc.Collection, err)
				}
				records = append(records, record)
			}
			fetched[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, BuildStats{}, err
	}

	view := e.newView()
	stats := BuildStats{Collections: len(descs)}
	for i, desc := range descs {
		for _, record := range fetched[i] {
			if err := e.merge(view, desc, record, opts); err != nil {
				return nil, stats, err
			}
			stats.Records++
		}
	}

	return view, stats, nil
}

// merge extracts the key of record, sanitizes its body and folds it into the
// target leaf.
func (e *Engine) merge(view View, desc registry.Descriptor, record Record, opts Options) error {
	key, body, err := ExtractKey(e.registry, desc.Type, record)
	if err != nil {
		var missing *MissingKeyFieldError
		if errors.As(err, &missing) {
			missing.Collection = desc.Collection
			slog.Debug("Record is missing a key field",
				"collection", desc.Collection,
				"type", desc.Type,
				"field", missing.Field,
				"record_id", missing.RecordID)
		}
		return err
	}

	target := EnsureAt(view[desc.Type], key)
	for field, value := range Sanitize(body, opts, desc.Collection) {
		target[field] = value
	}
	return nil
}

// collections returns the descriptors taking part in a build.
func (e *Engine) collections(opts Options) []registry.Descriptor {
	all := e.registry.Descriptors()
	out := all[:0]
	for _, desc := range all {
		if opts.IgnoredCollections.Has(desc.Collection) {
			continue
		}
		out = append(out, desc)
	}
	return out
}

func (e *Engine) newView() View {
	view := make(View)
	for _, t := range registry.DocumentTypes() {
		view[t] = Node{}
	}
	for _, t := range e.registry.Types() {
		if _, ok := view[t]; !ok {
			view[t] = Node{}
		}
	}
	return view
}
