package finchat

import (
	"context"
	"time"
)

// Tracer records agent runs for observability backends. Implementations:
// OTLPTracer (OpenTelemetry), NoOpTracer.
type Tracer interface {
	// StartTrace opens a trace for one loop run; the returned func ends it.
	StartTrace(ctx context.Context, name string, opts ...TraceOption) (context.Context, func())

	// StartSpan opens a span within the current trace for an individual
	// operation such as a tool dispatch.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func())

	// LogGeneration records one model generation.
	LogGeneration(ctx context.Context, opts GenerationOptions) error

	// LogEvent records a point-in-time event within the trace.
	LogEvent(ctx context.Context, name string, attributes map[string]any) error

	// Flush sends pending traces; call before process exit.
	Flush(ctx context.Context) error
}

// TraceOption configures trace creation.
type TraceOption func(*TraceConfig)

// SpanOption configures span creation.
type SpanOption func(*SpanConfig)

// TraceConfig holds configuration for a trace.
type TraceConfig struct {
	UserID    string
	SessionID string
	Input     any
	Metadata  map[string]any
}

// SpanConfig holds configuration for a span.
type SpanConfig struct {
	Type     SpanType
	Input    any
	Metadata map[string]any
}

// SpanType classifies an observed operation.
type SpanType string

const (
	SpanTypeSpan       SpanType = "span"
	SpanTypeGeneration SpanType = "generation"
	SpanTypeTool       SpanType = "tool"
)

// LogLevel is the severity recorded with an observation.
type LogLevel string

const (
	LogLevelDefault LogLevel = "DEFAULT"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// GenerationOptions holds data for one recorded model generation.
type GenerationOptions struct {
	Name            string
	Model           string
	ModelParameters map[string]any
	Input           any
	Output          any
	Usage           *UsageInfo
	StartTime       time.Time
	EndTime         time.Time
	Level           LogLevel
	StatusMessage   string
}

// UsageInfo tracks token consumption for a recorded generation.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// WithTraceUserID attaches the end-user identity to the trace.
func WithTraceUserID(userID string) TraceOption {
	return func(c *TraceConfig) { c.UserID = userID }
}

// WithTraceSessionID groups related traces under one conversation session.
func WithTraceSessionID(sessionID string) TraceOption {
	return func(c *TraceConfig) { c.SessionID = sessionID }
}

// WithTraceInput records the run's initial input.
func WithTraceInput(input any) TraceOption {
	return func(c *TraceConfig) { c.Input = input }
}

// WithTraceMetadata merges arbitrary key-value data into the trace.
func WithTraceMetadata(metadata map[string]any) TraceOption {
	return func(c *TraceConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]any)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithSpanType sets the span's operation type.
func WithSpanType(spanType SpanType) SpanOption {
	return func(c *SpanConfig) { c.Type = spanType }
}

// WithSpanInput records the operation's input.
func WithSpanInput(input any) SpanOption {
	return func(c *SpanConfig) { c.Input = input }
}

// NoOpTracer is a Tracer that does nothing; used when tracing is disabled.
type NoOpTracer struct{}

func (n *NoOpTracer) StartTrace(ctx context.Context, name string, opts ...TraceOption) (context.Context, func()) {
	return ctx, func() {}
}

func (n *NoOpTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	return ctx, func() {}
}

func (n *NoOpTracer) LogGeneration(ctx context.Context, opts GenerationOptions) error { return nil }

func (n *NoOpTracer) LogEvent(ctx context.Context, name string, attributes map[string]any) error {
	return nil
}

func (n *NoOpTracer) Flush(ctx context.Context) error { return nil }
