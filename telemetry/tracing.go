// OpenTelemetry tracing support for fetch coordination observability.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with fetch-specific helpers.
type Tracer struct {
	tracer trace.Tracer
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a new tracer with the given name.
func NewTracer(name string) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name),
	}
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// --- Fetch Spans ---

// FetchSpanOptions contains options for fetch operation spans.
type FetchSpanOptions struct {
	Key       string
	Symbol    string
	Provider  string
	Coalesced bool // joined an in-flight fetch instead of issuing one
	CacheHit  bool // served from the local cache
}

// StartFetchSpan starts a span for a fetch operation.
func (t *Tracer) StartFetchSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "fetch."+key, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("fetch.key", key))
	return ctx, span
}

// EndFetchSpan ends a fetch span with attributes.
func (t *Tracer) EndFetchSpan(span trace.Span, opts FetchSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("fetch.coalesced", opts.Coalesced),
		attribute.Bool("fetch.cache_hit", opts.CacheHit),
	}
	if opts.Symbol != "" {
		attrs = append(attrs, attribute.String("fetch.symbol", opts.Symbol))
	}
	if opts.Provider != "" {
		attrs = append(attrs, attribute.String("fetch.provider", opts.Provider))
	}
	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Cache Spans ---

// CacheEventOptions annotates a span with a cache operation's outcome.
type CacheEventOptions struct {
	Key     string
	Cost    int64
	Evicted int // entries evicted to make room
}

// StartCacheSpan starts a span for a cache operation (put, trim, clear).
func (t *Tracer) StartCacheSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "cache."+op, trace.WithSpanKind(trace.SpanKindInternal))
}

// EndCacheSpan ends a cache span with attributes.
func (t *Tracer) EndCacheSpan(span trace.Span, opts CacheEventOptions, err error) {
	span.SetAttributes(
		attribute.String("cache.key", opts.Key),
		attribute.Int64("cache.cost", opts.Cost),
		attribute.Int("cache.evicted", opts.Evicted),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// --- Pressure Events ---

// RecordPressureTransition annotates the current span with a memory
// pressure transition.
func RecordPressureTransition(span trace.Span, from, to string) {
	span.AddEvent("memory_pressure", trace.WithAttributes(
		attribute.String("pressure.from", from),
		attribute.String("pressure.to", to),
	))
}

// --- Context Propagation ---

// InjectContext injects trace context into a carrier for cross-process propagation.
func InjectContext(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// ExtractContext extracts trace context from a carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// MapCarrier is a simple map-based TextMapCarrier for context propagation.
type MapCarrier map[string]string

func (c MapCarrier) Get(key string) string {
	return c[key]
}

func (c MapCarrier) Set(key, value string) {
	c[key] = value
}

func (c MapCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
