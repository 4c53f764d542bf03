package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Log attribute keys.
const (
	attrTraceID = "trace_id"
	attrSpanID  = "span_id"
	attrService = "service"
	attrEnv     = "env"
	attrMode    = "mode"
)

// TracingHandler stamps records with the span active in their context. The
// service identity attributes sit above any group opened later.
type TracingHandler struct {
	next slog.Handler
}

// NewTracingHandler wraps next. env is omitted when empty.
func NewTracingHandler(next slog.Handler, service, env string, mode AppMode) *TracingHandler {
	identity := []slog.Attr{slog.String(attrService, service), slog.String(attrMode, string(mode))}
	if env != "" {
		identity = append(identity, slog.String(attrEnv, env))
	}

	return &TracingHandler{next: next.WithAttrs(identity)}
}

// Enabled implements [slog.Handler].
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements [slog.Handler].
func (h *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	span := trace.SpanContextFromContext(ctx)
	if span.IsValid() {
		record.AddAttrs(slog.String(attrTraceID, span.TraceID().String()), slog.String(attrSpanID, span.SpanID().String()))
	}

	if err := h.next.Handle(ctx, record); err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{next: h.next.WithGroup(name)}
}
