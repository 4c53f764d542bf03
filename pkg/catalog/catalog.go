// Package catalog publishes parsed projects to concurrent readers.
//
// Each load parses every dump source into a fresh project list and swaps it
// in atomically once all sources succeeded, so readers only ever see a fully
// built snapshot.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/typetrail/pkg/dump"
	"github.com/Sumatoshi-tech/typetrail/pkg/history"
	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

const tracerName = "typetrail/catalog"

var (
	// ErrProjectNotFound is returned when no project has the requested name.
	ErrProjectNotFound = errors.New("project not found")
	// ErrNotReady is returned before the first snapshot is published.
	ErrNotReady = errors.New("catalog not ready")
)

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithViewCacheSize sets the per-snapshot view cache capacity.
func WithViewCacheSize(size int) Option {
	return func(c *Catalog) {
		c.cacheSize = size
	}
}

// WithMetrics records parse runs and view cache lookups.
func WithMetrics(m *observability.ParseMetrics) Option {
	return func(c *Catalog) {
		c.metrics = m
	}
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Catalog) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// Catalog holds the currently published Snapshot.
type Catalog struct {
	current   atomic.Pointer[Snapshot]
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.ParseMetrics
	cacheSize int
}

// New creates an empty catalog. It reports not ready until the first
// Load or Publish.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		cacheSize: DefaultViewCacheSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Load parses sources with one shared parser and publishes the result. On
// error the previously published snapshot stays in place.
func (c *Catalog) Load(ctx context.Context, sources []dump.Source) (dump.Stats, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.load",
		trace.WithAttributes(attribute.Int("typetrail.sources", len(sources))))
	defer span.End()

	start := time.Now()
	parser := dump.NewParser(dump.WithLogger(c.logger))

	stats, err := dump.ParseSources(ctx, parser, sources)

	c.metrics.RecordParse(ctx, observability.ParseStats{
		Sources:  int64(len(sources)),
		Lines:    int64(stats.Lines),
		Projects: int64(stats.Projects),
		Commits:  int64(stats.Commits),
		Files:    int64(stats.Files),
		Duration: time.Since(start),
		Failed:   err != nil,
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return stats, err
	}

	publishErr := c.Publish(parser.Projects())
	if publishErr != nil {
		return stats, publishErr
	}

	span.SetAttributes(
		attribute.Int("typetrail.projects", stats.Projects),
		attribute.Int("typetrail.commits", stats.Commits),
	)

	c.logger.InfoContext(ctx, "catalog loaded",
		"sources", len(sources),
		"projects", stats.Projects,
		"commits", stats.Commits,
		"files", stats.Files,
		"lines", stats.Lines,
		"duration", time.Since(start),
	)

	return stats, nil
}

// Publish swaps in a snapshot of projects.
func (c *Catalog) Publish(projects []*history.Project) error {
	snap, err := NewSnapshot(projects, c.cacheSize)
	if err != nil {
		return err
	}

	c.current.Store(snap)

	return nil
}

// Snapshot returns the published snapshot, or nil before the first publish.
func (c *Catalog) Snapshot() *Snapshot {
	return c.current.Load()
}

// Ready reports ErrNotReady until a snapshot is published.
func (c *Catalog) Ready(_ context.Context) error {
	if c.current.Load() == nil {
		return ErrNotReady
	}

	return nil
}

func (c *Catalog) snapshot() (*Snapshot, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}

	return snap, nil
}

// Projects returns the published projects.
func (c *Catalog) Projects() ([]*history.Project, error) {
	snap, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	return snap.Projects(), nil
}

// Summaries lists the published projects.
func (c *Catalog) Summaries() ([]Summary, error) {
	snap, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	return snap.Summaries(), nil
}

// Project returns the first published project named name.
func (c *Catalog) Project(name string) (*history.Project, error) {
	snap, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	return snap.Project(name)
}

// View returns the aggregated document of the named project.
func (c *Catalog) View(ctx context.Context, name string, cfg view.Config) (*view.Document, error) {
	snap, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	doc, hit, err := snap.View(name, cfg)
	if err != nil {
		return nil, err
	}

	c.metrics.RecordViewCache(ctx, hit)

	return doc, nil
}
