package observability_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/typetrail/pkg/observability"
)

func TestInit_DefaultIsNoop(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	assert.Nil(t, providers.MetricsHandler)

	_, span := providers.Tracer.Start(context.Background(), "load")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_PrometheusServesRequestMetrics(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true
	cfg.Mode = observability.ModeServe

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })
	require.NotNil(t, providers.MetricsHandler)

	red, err := observability.NewREDMetrics(providers.Meter)
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "GET /", observability.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "typetrail_requests")
}

func TestPrometheusHandler_Standalone(t *testing.T) {
	t.Parallel()

	mp, handler, err := observability.PrometheusHandler()
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	pm, err := observability.NewParseMetrics(mp.Meter("test"))
	require.NoError(t, err)

	pm.RecordParse(context.Background(), observability.ParseStats{Lines: 10, Projects: 1, Commits: 1})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "typetrail_parse_lines")
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = "1.2.3"
	cfg.Mode = observability.ModeMCP

	res, err := observability.NewResource(cfg)
	require.NoError(t, err)

	attrs := make(map[string]string)
	for _, attr := range res.Attributes() {
		attrs[string(attr.Key)] = attr.Value.Emit()
	}

	assert.Equal(t, "typetrail", attrs["service.name"])
	assert.Equal(t, "1.2.3", attrs["service.version"])
	assert.Equal(t, "mcp", attrs["app.mode"])
	assert.NotContains(t, attrs, "deployment.environment")
}

func TestNewSampler(t *testing.T) {
	t.Parallel()

	low := trace.TraceID{15: 1}
	high := trace.TraceID{8: 0xff, 9: 0xff, 10: 0xff, 11: 0xff, 12: 0xff, 13: 0xff, 14: 0xff, 15: 0xff}

	tests := []struct {
		name    string
		ratio   float64
		traceID trace.TraceID
		want    sdktrace.SamplingDecision
	}{
		{"unset samples all", 0, high, sdktrace.RecordAndSample},
		{"full ratio", 1, high, sdktrace.RecordAndSample},
		{"half keeps low ids", 0.5, low, sdktrace.RecordAndSample},
		{"half drops high ids", 0.5, high, sdktrace.Drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := observability.NewSampler(tt.ratio).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: context.Background(),
				TraceID:       tt.traceID,
				Name:          "view",
			})
			assert.Equal(t, tt.want, result.Decision)
		})
	}
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("invalid"))
	assert.Equal(t, map[string]string{"api-key": "secret", "tenant": "t1"},
		observability.ParseOTLPHeaders(" api-key = secret ,tenant=t1,junk"))
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	level, err := observability.ParseLogLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = observability.ParseLogLevel("chatty")
	assert.Error(t, err)
}
