package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "typetrail.requests.total"
	metricRequestDuration  = "typetrail.request.duration.seconds"
	metricErrorsTotal      = "typetrail.errors.total"
	metricInflightRequests = "typetrail.inflight.requests"

	attrOp     = "op"
	attrStatus = "status"

	// StatusOK labels a successful request.
	StatusOK = "ok"
	// StatusError labels a failed request.
	StatusError = "error"
)

// durationBucketBoundaries covers 1ms lookups up to multi-minute dump loads.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// REDMetrics counts rate, errors and duration of HTTP requests and MCP tool
// calls, labelled by operation.
type REDMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	inflight metric.Int64UpDownCounter
}

// NewREDMetrics registers the request instruments on mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	var (
		red REDMetrics
		err error
	)

	red.requests, err = counter(mt, metricRequestsTotal, "Requests served", "{request}")
	if err != nil {
		return nil, err
	}

	red.errors, err = counter(mt, metricErrorsTotal, "Requests that failed", "{error}")
	if err != nil {
		return nil, err
	}

	red.duration, err = seconds(mt, metricRequestDuration, "Request latency")
	if err != nil {
		return nil, err
	}

	red.inflight, err = mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Requests being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &red, nil
}

// RecordRequest records one finished request. A nil receiver records nothing.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, took time.Duration) {
	if rm == nil {
		return
	}

	opAttr := attribute.String(attrOp, op)
	labels := metric.WithAttributes(opAttr, attribute.String(attrStatus, status))

	rm.requests.Add(ctx, 1, labels)
	rm.duration.Record(ctx, took.Seconds(), labels)

	if status == StatusError {
		rm.errors.Add(ctx, 1, metric.WithAttributes(opAttr))
	}
}

// TrackInflight counts op as in flight until the returned func is called.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	if rm == nil {
		return func() {}
	}

	labels := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflight.Add(ctx, 1, labels)

	return func() { rm.inflight.Add(ctx, -1, labels) }
}

func counter(mt metric.Meter, name, description, unit string) (metric.Int64Counter, error) {
	c, err := mt.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	return c, nil
}

func seconds(mt metric.Meter, name, description string) (metric.Float64Histogram, error) {
	h, err := mt.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	return h, nil
}
