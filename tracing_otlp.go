package finchat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/asim800/finchat"

// OTLPTracer implements Tracer by exporting spans to an OTLP/HTTP collector.
// It works with any OTLP-compatible backend; gen_ai.* semantic convention
// attributes carry the generation details.
type OTLPTracer struct {
	tracer         trace.Tracer
	tracerProvider *sdktrace.TracerProvider
}

// OTLPConfig holds configuration for OTLP trace export.
type OTLPConfig struct {
	// Endpoint is the collector base URL, e.g. "https://otel.example.com".
	// An http:// scheme disables TLS.
	Endpoint string
	// URLPath overrides the traces path. Defaults to "/v1/traces".
	URLPath string
	// Headers are sent with every export request.
	Headers map[string]string
	// PublicKey and SecretKey, when both set, add an Authorization header
	// with basic auth. Used by backends such as Langfuse.
	PublicKey string
	SecretKey string
	// ServiceName identifies the application in traces.
	ServiceName string
	// ServiceVersion tracks the application version.
	ServiceVersion string
	// Environment names the deployment environment (production, staging).
	Environment string
}

// NewOTLPTracer creates a tracer exporting to the configured collector and
// installs its provider as the global OpenTelemetry tracer provider.
func NewOTLPTracer(cfg OTLPConfig) (*OTLPTracer, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("finchat: OTLP endpoint is required")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "finchat-app"
	}
	if cfg.URLPath == "" {
		cfg.URLPath = "/v1/traces"
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.PublicKey != "" && cfg.SecretKey != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(cfg.PublicKey + ":" + cfg.SecretKey))
		headers["Authorization"] = "Basic " + auth
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	useInsecure := strings.HasPrefix(cfg.Endpoint, "http://")

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithURLPath(cfg.URLPath),
	}
	if len(headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(headers))
	}
	if useInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("finchat: create OTLP exporter: %w", err)
	}

	// Schemaless resource avoids semconv schema version conflicts.
	res := resource.NewSchemaless(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return &OTLPTracer{
		tracer:         tp.Tracer(tracerName),
		tracerProvider: tp,
	}, nil
}

// StartTrace creates the root span for one agent run.
func (o *OTLPTracer) StartTrace(ctx context.Context, name string, opts ...TraceOption) (context.Context, func()) {
	cfg := &TraceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	spanCtx, span := o.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithTimestamp(time.Now()),
	)

	if cfg.UserID != "" {
		span.SetAttributes(attribute.String("user.id", cfg.UserID))
	}
	if cfg.SessionID != "" {
		span.SetAttributes(attribute.String("session.id", cfg.SessionID))
	}
	if cfg.Input != nil {
		inputJSON, _ := json.Marshal(cfg.Input)
		span.SetAttributes(attribute.String("trace.input", string(inputJSON)))
	}
	setMetadataAttributes(span, "trace.metadata.", cfg.Metadata)

	return spanCtx, func() { span.End() }
}

// StartSpan creates a span within the current trace.
func (o *OTLPTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	cfg := &SpanConfig{Type: SpanTypeSpan}
	for _, opt := range opts {
		opt(cfg)
	}

	spanCtx, span := o.tracer.Start(ctx, name,
		trace.WithTimestamp(time.Now()),
	)

	span.SetAttributes(attribute.String("observation.type", string(cfg.Type)))
	if cfg.Input != nil {
		inputJSON, _ := json.Marshal(cfg.Input)
		span.SetAttributes(attribute.String("observation.input", string(inputJSON)))
	}
	setMetadataAttributes(span, "observation.metadata.", cfg.Metadata)

	return spanCtx, func() { span.End() }
}

// LogGeneration records one model generation as a completed span.
func (o *OTLPTracer) LogGeneration(ctx context.Context, opts GenerationOptions) error {
	_, span := o.tracer.Start(ctx, opts.Name,
		trace.WithTimestamp(opts.StartTime),
	)
	defer span.End(trace.WithTimestamp(opts.EndTime))

	span.SetAttributes(attribute.String("observation.type", string(SpanTypeGeneration)))

	if opts.Model != "" {
		span.SetAttributes(attribute.String("gen_ai.request.model", opts.Model))
	}
	if opts.ModelParameters != nil {
		paramsJSON, _ := json.Marshal(opts.ModelParameters)
		span.SetAttributes(attribute.String("gen_ai.request.parameters", string(paramsJSON)))
	}
	if opts.Input != nil {
		inputJSON, _ := json.Marshal(opts.Input)
		span.SetAttributes(attribute.String("gen_ai.prompt", string(inputJSON)))
	}
	if opts.Output != nil {
		outputJSON, _ := json.Marshal(opts.Output)
		span.SetAttributes(attribute.String("gen_ai.completion", string(outputJSON)))
	}
	if opts.Usage != nil {
		span.SetAttributes(
			attribute.Int("gen_ai.usage.input_tokens", opts.Usage.PromptTokens),
			attribute.Int("gen_ai.usage.output_tokens", opts.Usage.CompletionTokens),
			attribute.Int("gen_ai.usage.total_tokens", opts.Usage.TotalTokens),
		)
	}
	if opts.Level != "" {
		span.SetAttributes(attribute.String("observation.level", string(opts.Level)))
	}
	if opts.StatusMessage != "" {
		span.SetAttributes(attribute.String("observation.status_message", opts.StatusMessage))
		if opts.Level == LogLevelError {
			span.SetStatus(codes.Error, opts.StatusMessage)
		}
	}

	return nil
}

// LogEvent records a point-in-time event within the trace.
func (o *OTLPTracer) LogEvent(ctx context.Context, name string, attributes map[string]any) error {
	_, span := o.tracer.Start(ctx, name,
		trace.WithTimestamp(time.Now()),
	)
	defer span.End(trace.WithTimestamp(time.Now()))

	span.SetAttributes(attribute.String("observation.type", "event"))
	setMetadataAttributes(span, "observation.metadata.", attributes)

	return nil
}

// Flush forces export of all pending spans.
func (o *OTLPTracer) Flush(ctx context.Context) error {
	return o.tracerProvider.ForceFlush(ctx)
}

// Shutdown flushes and stops the tracer provider.
func (o *OTLPTracer) Shutdown(ctx context.Context) error {
	return o.tracerProvider.Shutdown(ctx)
}

func setMetadataAttributes(span trace.Span, prefix string, metadata map[string]any) {
	for k, v := range metadata {
		valueJSON, _ := json.Marshal(v)
		span.SetAttributes(attribute.String(prefix+k, string(valueJSON)))
	}
}
