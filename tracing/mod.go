// Package tracing wires opentracing spans around batch and single-transaction
// execution, reusing the address-keyed jaeger tracer catalog already built
// for the rest of this module's collaborators.
package tracing

import (
	"context"

	opentracing "github.com/opentracing/opentracing-go"
	"go.chainforge.dev/executor/internal/tracing"
)

// ForService returns the cached opentracing.Tracer for the given service
// name, creating and caching a new jaeger tracer on first use.
func ForService(name string) (opentracing.Tracer, error) {
	return tracing.GetTracerForAddr(name)
}

// StartBatchSpan starts a span covering one full batch run, tagged with the
// block height it is building.
func StartBatchSpan(ctx context.Context, tracer opentracing.Tracer, height int64) (opentracing.Span, context.Context) {
	span := tracer.StartSpan("executor.batch")
	span.SetTag("block.height", height)

	return span, opentracing.ContextWithSpan(ctx, span)
}

// StartTransactionSpan starts a child span for one transaction's execution,
// nested under whatever span (if any) is already present in ctx.
func StartTransactionSpan(ctx context.Context, tracer opentracing.Tracer, transactionID string, depth int) (opentracing.Span, context.Context) {
	var opts []opentracing.StartSpanOption

	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}

	span := tracer.StartSpan("executor.transaction", opts...)
	span.SetTag("transaction.id", transactionID)
	span.SetTag("transaction.depth", depth)

	return span, opentracing.ContextWithSpan(ctx, span)
}

// CloseAll releases every cached tracer, flushing any buffered spans.
func CloseAll() error {
	return tracing.CloseAll()
}
