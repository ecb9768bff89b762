package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/thinclient/pkg/protocol"
)

const defaultTracerName = "thinclient"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "thinclient").
	TracerName string

	// TracerProvider overrides the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which batches to trace. If nil, all are traced.
	Filter func(b protocol.Batch) bool

	// AttributeExtractor adds custom attributes per batch.
	AttributeExtractor func(ctx context.Context, b protocol.Batch) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithBatchFilter sets a filter function for batches.
func WithBatchFilter(filter func(b protocol.Batch) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx context.Context, b protocol.Batch) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that starts a span for every batch.
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure it in main() before starting a session:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.TracerProvider != nil {
		tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, b protocol.Batch) error {
			if config.Filter != nil && !config.Filter(b) {
				return next(ctx, b)
			}

			attrs := []attribute.KeyValue{
				attribute.Int64("thinclient.seq", int64(b.Seq)),
				attribute.Int("thinclient.patch_count", len(b.Patches)),
			}
			if id := SessionID(ctx); id != "" {
				attrs = append(attrs, attribute.String("thinclient.session_id", id))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(ctx, b)...)
			}

			ctx, span := tracer.Start(ctx, fmt.Sprintf("thinclient.batch %d", b.Seq),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			err := next(ctx, b)
			span.SetAttributes(attribute.String("thinclient.fault", Classify(err)))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}

// SpanFromContext returns the current batch span, or a no-op span.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
