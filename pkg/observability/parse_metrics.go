package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricParseRunsTotal     = "typetrail.parse.runs.total"
	metricParseDuration      = "typetrail.parse.duration.seconds"
	metricParseLinesTotal    = "typetrail.parse.lines.total"
	metricParseProjectsTotal = "typetrail.parse.projects.total"
	metricParseCommitsTotal  = "typetrail.parse.commits.total"
	metricViewCacheTotal     = "typetrail.view.cache.lookups.total"

	attrResult = "result"
)

// ParseMetrics holds OTel instruments for dump loading and view caching.
type ParseMetrics struct {
	runsTotal     metric.Int64Counter
	duration      metric.Float64Histogram
	linesTotal    metric.Int64Counter
	projectsTotal metric.Int64Counter
	commitsTotal  metric.Int64Counter
	cacheLookups  metric.Int64Counter
}

// ParseStats describes one completed load of a set of dump sources.
type ParseStats struct {
	Sources  int64
	Lines    int64
	Projects int64
	Commits  int64
	Files    int64
	Duration time.Duration
	Failed   bool
}

// NewParseMetrics creates parse metric instruments from the given meter.
func NewParseMetrics(mt metric.Meter) (*ParseMetrics, error) {
	var (
		pm  ParseMetrics
		err error
	)

	pm.runsTotal, err = counter(mt, metricParseRunsTotal, "Dump load runs by result", "{run}")
	if err != nil {
		return nil, err
	}

	pm.duration, err = seconds(mt, metricParseDuration, "Dump load duration in seconds")
	if err != nil {
		return nil, err
	}

	pm.linesTotal, err = counter(mt, metricParseLinesTotal, "Dump lines parsed", "{line}")
	if err != nil {
		return nil, err
	}

	pm.projectsTotal, err = counter(mt, metricParseProjectsTotal, "Projects parsed", "{project}")
	if err != nil {
		return nil, err
	}

	pm.commitsTotal, err = counter(mt, metricParseCommitsTotal, "Commits parsed", "{commit}")
	if err != nil {
		return nil, err
	}

	pm.cacheLookups, err = counter(mt, metricViewCacheTotal, "View cache lookups by result", "{lookup}")
	if err != nil {
		return nil, err
	}

	return &pm, nil
}

// RecordParse records a completed load. Safe to call on a nil receiver.
func (pm *ParseMetrics) RecordParse(ctx context.Context, stats ParseStats) {
	if pm == nil {
		return
	}

	status := StatusOK
	if stats.Failed {
		status = StatusError
	}

	result := metric.WithAttributes(attribute.String(attrResult, status))

	pm.runsTotal.Add(ctx, 1, result)
	pm.duration.Record(ctx, stats.Duration.Seconds(), result)

	if stats.Failed {
		return
	}

	pm.linesTotal.Add(ctx, stats.Lines)
	pm.projectsTotal.Add(ctx, stats.Projects)
	pm.commitsTotal.Add(ctx, stats.Commits)
}

// RecordViewCache records one view cache lookup. Safe to call on a nil receiver.
func (pm *ParseMetrics) RecordViewCache(ctx context.Context, hit bool) {
	if pm == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	pm.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
