package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "vueconv", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5, cfg.ShutdownTimeoutSec)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, err: true},
	}

	for _, tt := range tests {
		got, err := observability.ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.err, err != nil, tt.in)
	}
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("novalue,=x"))
	assert.Equal(t, map[string]string{"a": "1", "b": "two"}, observability.ParseOTLPHeaders(" a=1 , b = two"))
}

func TestInit_NoopWithoutEndpoint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogJSON = true

	providers, err := observability.Init(cfg, observability.WithLogOutput(&buf))
	require.NoError(t, err)

	_, span := providers.Tracer.Start(context.Background(), "x")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	providers.Logger.Info("hello")

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "vueconv", record["service"])
	assert.Equal(t, "cli", record["mode"])

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "svc", "dev", observability.ModeLSP))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.WithGroup("req").InfoContext(ctx, "converted", "file", "a.vue")

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record["trace_id"])
	assert.Equal(t, "svc", record["service"])
	assert.Equal(t, "lsp", record["mode"])
	assert.Equal(t, "dev", record["env"])
}

func TestREDMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	red, err := observability.NewREDMetrics(meter)
	require.NoError(t, err)

	ctx := context.Background()

	done := red.TrackInflight(ctx, "convert")
	red.RecordRequest(ctx, "convert", observability.StatusOK, 2*time.Millisecond)
	red.RecordRequest(ctx, "convert", observability.Status(errors.New("boom")), time.Millisecond)
	done()

	rm := collect(t, reader)

	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "vueconv.requests.total")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "vueconv.errors.total")))
	assert.Equal(t, int64(0), sumOf(t, findMetric(rm, "vueconv.inflight.requests")))
	assert.NotNil(t, findMetric(rm, "vueconv.request.duration.seconds"))

	var nilRED *observability.REDMetrics

	nilRED.RecordRequest(ctx, "x", observability.StatusOK, 0)
	nilRED.TrackInflight(ctx, "x")()
}

func TestConversionMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	cm, err := observability.NewConversionMetrics(meter)
	require.NoError(t, err)

	ctx := context.Background()

	cm.Record(ctx, observability.ConversionStats{
		Bindings:    map[string]int{"state": 2, "derived": 1},
		Diagnostics: map[string]int{"warning": 1},
		SourceBytes: 900,
	})
	cm.Record(ctx, observability.ConversionStats{CacheHit: true})

	rm := collect(t, reader)

	assert.Equal(t, int64(3), sumOf(t, findMetric(rm, "vueconv.conversion.bindings.total")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "vueconv.conversion.diagnostics.total")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "vueconv.conversion.cache.hits.total")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "vueconv.conversion.cache.misses.total")))
}

func TestHTTPMiddleware(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	reader := sdkmetric.NewManualReader()
	red, err := observability.NewREDMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	handler := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	observability.HTTPMiddleware(tp.Tracer("test"), red, handler).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/convert", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /api/convert", spans[0].Name)
	assert.Equal(t, "Error", spans[0].Status.Code.String())

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "vueconv.errors.total")))
}

func TestHealthAndReady(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	observability.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	failing := func(context.Context) error { return errors.New("not ready") }

	rec = httptest.NewRecorder()
	observability.ReadyHandler(failing).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestPrometheusProvider(t *testing.T) {
	t.Parallel()

	mp, handler, err := observability.NewPrometheusProvider()
	require.NoError(t, err)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "convert", observability.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "vueconv_requests_total")
}

func TestFilteringTracerProvider_DropsStageSpans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := observability.NewFilteringTracerProvider(tp).Tracer("test")

	_, parse := tracer.Start(context.Background(), observability.SpanParse)
	parse.End()

	_, convert := tracer.Start(context.Background(), "vueconv.convert")
	convert.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "vueconv.convert", spans[0].Name)
}
