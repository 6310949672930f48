package evaluator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracing installs a global TracerProvider that exports spans to
// stdout, so that Inference calls and runner batches are traceable without
// depending on a collector. endpoint is recorded as a resource attribute
// only; wiring an OTLP exporter is left to a production deployment.
func InitTracing(serviceName, endpoint string) (shutdown func(context.Context) error, err error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("evaluator: create trace exporter: %w", err)
	}

	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(serviceName)}
	if endpoint != "" {
		attrs = append(attrs, attribute.String("otel.endpoint", endpoint))
	}
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
	if err != nil {
		return nil, fmt.Errorf("evaluator: build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// tracer returns the package tracer, resolved lazily against whatever
// global TracerProvider is installed — a no-op tracer if InitTracing was
// never called.
func tracer() trace.Tracer {
	return otel.Tracer("github.com/Skizdukion/my-open-spiel/evaluator")
}

// traceInference starts a span around one Inference call. Callers must end
// the returned span themselves. Its SpanContext is threaded through the
// queue (see pendingItem.spanCtx) so the runner's eventual batch span can
// link back to every coalesced caller, rather than starting a disconnected
// root trace per Inference call.
func traceInference(legalActions int) trace.Span {
	_, span := tracer().Start(context.Background(), "evaluator.Inference", trace.WithAttributes(
		attribute.Int("legal_actions", legalActions),
	))
	return span
}

// traceBatch starts a span around one runner dispatch call, recording the
// real and padded batch sizes, and linking back to the span of every
// coalesced Inference call whose request ended up in this batch — this is
// what makes a batch's fan-in from N actor calls visible in a trace viewer,
// since a batch span otherwise carries no relationship to the calls that
// filled it. Callers must end the returned span themselves.
func traceBatch(realBatchSize, paddedBatchSize int, links []trace.Link) trace.Span {
	opts := []trace.SpanStartOption{trace.WithAttributes(
		attribute.Int("real_batch_size", realBatchSize),
		attribute.Int("padded_batch_size", paddedBatchSize),
	)}
	if len(links) > 0 {
		opts = append(opts, trace.WithLinks(links...))
	}
	_, span := tracer().Start(context.Background(), "evaluator.dispatch", opts...)
	return span
}
