package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewResource exposes newResource for testing.
func NewResource(cfg Config) (*resource.Resource, error) {
	return newResource(context.Background(), cfg)
}

// NewSampler exposes newSampler for testing.
func NewSampler(ratio float64) sdktrace.Sampler {
	return newSampler(ratio)
}
