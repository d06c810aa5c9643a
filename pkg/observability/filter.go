package observability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// Span names of the conversion stages. They are dropped unless
// Config.TraceVerbose is set.
const (
	SpanParse      = "vueconv.parse"
	SpanClassify   = "vueconv.classify"
	SpanSynthesize = "vueconv.synthesize"
	SpanAssemble   = "vueconv.assemble"
	SpanRefine     = "vueconv.refine"
	SpanFormat     = "vueconv.format"
)

var stageSpans = map[string]bool{
	SpanParse:      true,
	SpanClassify:   true,
	SpanSynthesize: true,
	SpanAssemble:   true,
	SpanRefine:     true,
	SpanFormat:     true,
}

// allowedPrefixes lists span attribute keys that reach the exporter.
var allowedPrefixes = []string{
	"vueconv.",
	"convert.",
	"error",
	"http.",
	"mcp.",
	"lsp.",
}

// blockedKeys never leave the process: they may carry user source code.
var blockedKeys = map[string]bool{
	"convert.source":  true,
	"request.body":    true,
	"response.body":   true,
	"vueconv.content": true,
}

// NewFilteringTracerProvider replaces the per-stage conversion spans with
// no-op spans and keeps everything else.
func NewFilteringTracerProvider(delegate trace.TracerProvider) trace.TracerProvider {
	return &filteringTracerProvider{delegate: delegate, noop: nooptrace.NewTracerProvider()}
}

type filteringTracerProvider struct {
	embedded.TracerProvider

	delegate trace.TracerProvider
	noop     trace.TracerProvider
}

func (f *filteringTracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &filteringTracer{
		delegate: f.delegate.Tracer(name, opts...),
		noop:     f.noop.Tracer(name, opts...),
	}
}

type filteringTracer struct {
	embedded.Tracer

	delegate trace.Tracer
	noop     trace.Tracer
}

func (f *filteringTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if stageSpans[name] {
		return f.noop.Start(ctx, name, opts...)
	}

	return f.delegate.Start(ctx, name, opts...)
}

// NewAttributeFilter returns a SpanProcessor that strips attributes outside
// the allow-list before delegate sees the span. A non-nil logger reports
// every stripped key.
func NewAttributeFilter(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &attributeFilter{delegate: delegate, logger: logger}
}

type attributeFilter struct {
	delegate sdktrace.SpanProcessor
	logger   *slog.Logger
}

func (f *attributeFilter) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	f.delegate.OnStart(parent, s)
}

func (f *attributeFilter) OnEnd(s sdktrace.ReadOnlySpan) {
	f.delegate.OnEnd(&filteredSpan{ReadOnlySpan: s, filter: f})
}

func (f *attributeFilter) Shutdown(ctx context.Context) error {
	if err := f.delegate.Shutdown(ctx); err != nil {
		return fmt.Errorf("attribute filter shutdown: %w", err)
	}

	return nil
}

func (f *attributeFilter) ForceFlush(ctx context.Context) error {
	if err := f.delegate.ForceFlush(ctx); err != nil {
		return fmt.Errorf("attribute filter flush: %w", err)
	}

	return nil
}

// Allowed reports whether an attribute key passes the filter.
func (f *attributeFilter) Allowed(key string) bool {
	if !blockedKeys[key] {
		for _, prefix := range allowedPrefixes {
			if strings.HasPrefix(key, prefix) {
				return true
			}
		}
	}

	if f.logger != nil {
		f.logger.Warn("attribute blocked by filter", "key", key)
	}

	return false
}

type filteredSpan struct {
	sdktrace.ReadOnlySpan

	filter *attributeFilter
}

func (s *filteredSpan) Attributes() []attribute.KeyValue {
	orig := s.ReadOnlySpan.Attributes()
	kept := make([]attribute.KeyValue, 0, len(orig))

	for _, kv := range orig {
		if s.filter.Allowed(string(kv.Key)) {
			kept = append(kept, kv)
		}
	}

	return kept
}
