package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricBindingsTotal    = "vueconv.conversion.bindings.total"
	metricDiagnosticsTotal = "vueconv.conversion.diagnostics.total"
	metricSourceBytes      = "vueconv.conversion.source.bytes"
	metricCacheHitsTotal   = "vueconv.conversion.cache.hits.total"
	metricCacheMissesTotal = "vueconv.conversion.cache.misses.total"

	attrKind     = "kind"
	attrSeverity = "severity"
)

var sourceSizeBuckets = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576}

// ConversionStats describes one finished conversion, decoupled from the
// converter's own types.
type ConversionStats struct {
	// Bindings counts emitted bindings by kind.
	Bindings map[string]int
	// Diagnostics counts findings by severity name.
	Diagnostics map[string]int
	SourceBytes int
	CacheHit    bool
}

// ConversionMetrics holds instruments describing conversion output.
type ConversionMetrics struct {
	bindings    metric.Int64Counter
	diagnostics metric.Int64Counter
	sourceBytes metric.Float64Histogram
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// NewConversionMetrics creates conversion instruments from mt.
func NewConversionMetrics(mt metric.Meter) (*ConversionMetrics, error) {
	b := &metricBuilder{meter: mt}

	cm := &ConversionMetrics{
		bindings:    b.counter(metricBindingsTotal, "Bindings emitted by kind", "{binding}"),
		diagnostics: b.counter(metricDiagnosticsTotal, "Diagnostics reported by severity", "{diagnostic}"),
		sourceBytes: b.histogram(metricSourceBytes, "Size of converted sources", "By", sourceSizeBuckets...),
		cacheHits:   b.counter(metricCacheHitsTotal, "Conversions served from cache", "{hit}"),
		cacheMisses: b.counter(metricCacheMissesTotal, "Conversions computed", "{miss}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return cm, nil
}

// Record adds one conversion. Safe on a nil receiver.
func (cm *ConversionMetrics) Record(ctx context.Context, stats ConversionStats) {
	if cm == nil {
		return
	}

	if stats.CacheHit {
		cm.cacheHits.Add(ctx, 1)

		return
	}

	cm.cacheMisses.Add(ctx, 1)
	cm.sourceBytes.Record(ctx, float64(stats.SourceBytes))

	for kind, n := range stats.Bindings {
		cm.bindings.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrKind, kind)))
	}

	for severity, n := range stats.Diagnostics {
		cm.diagnostics.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrSeverity, severity)))
	}
}
