package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sitesync"

// StartRunSpan starts a span for a sync run.
func StartRunSpan(ctx context.Context, syncID, source, dest string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "sync.run",
		trace.WithAttributes(
			attribute.String("sync.id", syncID),
			attribute.String("sync.source", source),
			attribute.String("sync.dest", dest),
		),
	)
}

// StartRefreshSpan starts a span for an OAuth token refresh.
func StartRefreshSpan(ctx context.Context, provider string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "token.refresh",
		trace.WithAttributes(
			attribute.String("provider", provider),
		),
	)
}
