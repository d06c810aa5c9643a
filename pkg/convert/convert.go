// Package convert runs the conversion pipeline: parse, classify, synthesize,
// assemble and optionally refine. Single-file components are converted
// inside their `<script>` block.
package convert

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/vueconv/pkg/assemble"
	"github.com/Sumatoshi-tech/vueconv/pkg/classify"
	"github.com/Sumatoshi-tech/vueconv/pkg/diagnostic"
	"github.com/Sumatoshi-tech/vueconv/pkg/format"
	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
	"github.com/Sumatoshi-tech/vueconv/pkg/refine"
	"github.com/Sumatoshi-tech/vueconv/pkg/synth"
	"github.com/Sumatoshi-tech/vueconv/pkg/textutil"
	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

// Sentinel errors.
var (
	// ErrFileTooLarge reports input above Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
	// ErrBinaryInput reports input that is not text.
	ErrBinaryInput = errors.New("binary input")
)

const (
	// SpanConvert is the root span of one conversion.
	SpanConvert = "vueconv.convert"
	// SpanInspect is the span of one inspection.
	SpanInspect = "vueconv.inspect"
	// OpConvert is the RED operation name of a conversion.
	OpConvert = "convert"
)

// Options selects the output form.
type Options struct {
	// Language overrides detection from the file name.
	Language tsparse.Language
	// RewriteThis rewrites `this.x` references to setup-scope names.
	RewriteThis bool
	// Strict turns an unmatched setter into an error.
	Strict bool
	// Context names the setup context argument.
	Context string
	// ImportSource is the module framework functions are imported from.
	ImportSource string
	// ScriptSetup emits `<script setup>` code instead of defineComponent.
	ScriptSetup bool
	// Refine applies Rules after assembly.
	Refine bool
	// Rules defaults to refine.DefaultRules.
	Rules *refine.RuleSet
	// MaxFileSize rejects larger inputs when positive.
	MaxFileSize int64
	// FormatCommand pipes converted code through an external formatter.
	FormatCommand string
	// FormatTimeout bounds one formatter run; zero means format.DefaultTimeout.
	FormatTimeout time.Duration
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{RewriteThis: true, Context: "ctx", ImportSource: assemble.DefaultImportSource}
}

func (o Options) synth() synth.Options {
	return synth.Options{RewriteThis: o.RewriteThis, Strict: o.Strict, Context: o.Context, ScriptSetup: o.ScriptSetup}
}

func (o Options) assemble() assemble.Options {
	return assemble.Options{ImportSource: o.ImportSource, Context: o.Context, ScriptSetup: o.ScriptSetup}
}

func (o Options) refine() refine.Options {
	return refine.Options{Context: o.Context, ImportSource: o.ImportSource, ScriptSetup: o.ScriptSetup}
}

// Result is the outcome of one conversion.
type Result struct {
	// Code is the converted unit, or the input when nothing was converted.
	Code     string           `json:"code"`
	Language tsparse.Language `json:"language"`
	// Converted is false when the input holds no class to convert.
	Converted   bool                   `json:"converted"`
	Class       string                 `json:"class,omitempty"`
	Bindings    []synth.Binding        `json:"bindings,omitempty"`
	Props       []synth.PropEntry      `json:"props,omitempty"`
	Emits       []string               `json:"emits,omitempty"`
	Diagnostics diagnostic.Diagnostics `json:"diagnostics"`
	// Refined lists the refinement rules that fired.
	Refined []string `json:"refined,omitempty"`
	// Cached is set when the result came from the converter cache.
	Cached bool `json:"cached,omitempty"`
}

// Stats summarizes the result for metrics.
func (r *Result) Stats(sourceBytes int) observability.ConversionStats {
	stats := observability.ConversionStats{
		Bindings:    make(map[string]int),
		Diagnostics: make(map[string]int),
		SourceBytes: sourceBytes,
		CacheHit:    r.Cached,
	}

	for _, b := range r.Bindings {
		stats.Bindings[b.Kind]++
	}

	for _, d := range r.Diagnostics.Items {
		stats.Diagnostics[d.Severity.String()]++
	}

	return stats
}

// Converter runs conversions. It is safe for concurrent use.
type Converter struct {
	opts       Options
	parser     *tsparse.Parser
	tracer     trace.Tracer
	red        *observability.REDMetrics
	conversion *observability.ConversionMetrics
	cache      *lru.Cache[string, *Result]
	formatter  *format.Formatter
	logger     *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithTracer traces every conversion and its stages.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Converter) {
		c.tracer = tracer
	}
}

// WithMetrics records RED and conversion metrics.
func WithMetrics(red *observability.REDMetrics, conversion *observability.ConversionMetrics) Option {
	return func(c *Converter) {
		c.red = red
		c.conversion = conversion
	}
}

// WithCache keeps the last size results keyed by language and content.
func WithCache(size int) Option {
	return func(c *Converter) {
		if size <= 0 {
			return
		}

		cache, err := lru.New[string, *Result](size)
		if err == nil {
			c.cache = cache
		}
	}
}

// WithLogger logs conversion outcomes at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// New creates a converter.
func New(opts Options, extra ...Option) *Converter {
	if opts.Context == "" {
		opts.Context = "ctx"
	}

	if opts.Refine && opts.Rules == nil {
		opts.Rules = refine.DefaultRules()
	}

	c := &Converter{
		opts:   opts,
		parser: tsparse.NewParser(),
		tracer: nooptrace.NewTracerProvider().Tracer(observability.TracerName),
		logger: slog.New(slog.DiscardHandler),
	}

	c.formatter = format.New(opts.FormatCommand, opts.FormatTimeout)

	for _, opt := range extra {
		opt(c)
	}

	return c
}

// Options returns the converter options.
func (c *Converter) Options() Options {
	return c.opts
}

// Convert converts one source unit. filename selects the grammar unless
// Options.Language is set; it may be empty in that case.
func (c *Converter) Convert(ctx context.Context, filename string, src []byte) (*Result, error) {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, SpanConvert, trace.WithAttributes(
		attribute.String("convert.file", filename),
		attribute.Int("convert.bytes", len(src)),
	))
	defer span.End()

	done := c.red.TrackInflight(ctx, OpConvert)
	defer done()

	result, err := c.convert(ctx, filename, src)

	c.red.RecordRequest(ctx, OpConvert, observability.Status(err), time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.DebugContext(ctx, "conversion failed", "file", filename, "error", err)

		return nil, err
	}

	span.SetAttributes(
		attribute.String("convert.language", string(result.Language)),
		attribute.Bool("convert.converted", result.Converted),
		attribute.Int("convert.bindings", len(result.Bindings)),
		attribute.Bool("convert.cached", result.Cached),
	)

	c.conversion.Record(ctx, result.Stats(len(src)))
	c.logger.DebugContext(ctx, "conversion finished",
		"file", filename,
		"language", result.Language,
		"converted", result.Converted,
		"bindings", len(result.Bindings),
		"diagnostics", len(result.Diagnostics.Items),
		"cached", result.Cached,
		"duration", time.Since(start),
	)

	return result, nil
}

func (c *Converter) convert(ctx context.Context, filename string, src []byte) (*Result, error) {
	if c.opts.MaxFileSize > 0 && int64(len(src)) > c.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge,
			humanize.IBytes(uint64(len(src))), humanize.IBytes(uint64(c.opts.MaxFileSize)))
	}

	if textutil.IsBinary(src) {
		return nil, ErrBinaryInput
	}

	lang := c.opts.Language
	if lang == "" {
		detected, err := tsparse.DetectLanguage(filename, src)
		if err != nil {
			return nil, fmt.Errorf("detect language: %w", err)
		}

		lang = detected
	}

	key := cacheKey(lang, src)

	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			hit := *cached
			hit.Cached = true

			return &hit, nil
		}
	}

	var (
		result *Result
		err    error
	)

	if lang == tsparse.LangVue {
		result, err = c.convertComponent(ctx, src)
	} else {
		result, err = c.convertScript(ctx, lang, src)
	}

	if err != nil {
		return nil, err
	}

	result.Language = lang

	if result.Converted && c.formatter != nil {
		fmtCtx, span := c.tracer.Start(ctx, observability.SpanFormat)
		formatted, fmtErr := c.formatter.Format(fmtCtx, formatName(filename, lang), result.Code)
		span.End()

		if fmtErr != nil {
			return nil, fmtErr
		}

		result.Code = formatted
	}

	if c.cache != nil {
		c.cache.Add(key, result)
	}

	return result, nil
}

// formatName gives the formatter a file name whose extension matches lang.
func formatName(filename string, lang tsparse.Language) string {
	if filename != "" {
		return filename
	}

	switch lang {
	case tsparse.LangVue:
		return "component.vue"
	case tsparse.LangTSX:
		return "component.tsx"
	case tsparse.LangJavaScript:
		return "component.js"
	default:
		return "component.ts"
	}
}

func cacheKey(lang tsparse.Language, src []byte) string {
	sum := sha256.Sum256(src)

	return string(lang) + ":" + hex.EncodeToString(sum[:])
}

// convertComponent converts the `<script>` block of a single-file component
// and splices the output back. Diagnostic lines refer to the component.
func (c *Converter) convertComponent(ctx context.Context, src []byte) (*Result, error) {
	block, err := c.parser.ExtractScript(ctx, src)
	if errors.Is(err, tsparse.ErrNoScriptBlock) {
		res := &Result{Code: string(src)}
		res.Diagnostics.AddInfo(diagnostic.CodeNoClass, "component has no script block; left unchanged", "", 0)

		return res, nil
	}

	if err != nil {
		return nil, err
	}

	content := block.Content(src)

	res, err := c.convertScript(ctx, block.Lang, content)
	if err != nil {
		var syntaxErr *tsparse.SyntaxError
		if errors.As(err, &syntaxErr) {
			shifted := *syntaxErr
			shifted.Line += lineOffset(src, block.Start)

			return nil, &shifted
		}

		return nil, err
	}

	offset := lineOffset(src, block.Start)
	shiftLines(res.Diagnostics.Items, offset)

	for i := range res.Bindings {
		if res.Bindings[i].Line > 0 {
			res.Bindings[i].Line += offset
		}
	}

	if !res.Converted {
		res.Code = string(src)

		return res, nil
	}

	body := res.Code
	if bytes.HasPrefix(content, []byte("\n")) {
		body = "\n" + body
	}

	if c.opts.ScriptSetup {
		res.Code = string(block.SpliceTag(src, setupTag(block.Lang), body))
	} else {
		res.Code = string(block.Splice(src, body))
	}

	return res, nil
}

func setupTag(lang tsparse.Language) string {
	switch lang {
	case tsparse.LangTypeScript:
		return `<script setup lang="ts">`
	case tsparse.LangTSX:
		return `<script setup lang="tsx">`
	default:
		return `<script setup>`
	}
}

// convertScript converts a TypeScript, TSX or JavaScript unit.
func (c *Converter) convertScript(ctx context.Context, lang tsparse.Language, src []byte) (*Result, error) {
	res := &Result{Code: string(src)}

	parseCtx, span := c.tracer.Start(ctx, observability.SpanParse)
	tree, err := c.parser.Parse(parseCtx, lang, src)
	span.End()

	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	_, span = c.tracer.Start(ctx, observability.SpanClassify)
	unit := classify.Analyze(tree, &res.Diagnostics)
	span.End()

	if unit.Class == nil {
		return res, nil
	}

	_, span = c.tracer.Start(ctx, observability.SpanSynthesize)
	synthesized, err := synth.Synthesize(unit.Class, c.opts.synth(), &res.Diagnostics)
	span.End()

	if err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", unit.Class.Name, err)
	}

	_, span = c.tracer.Start(ctx, observability.SpanAssemble)
	res.Code = assemble.Assemble(unit, synthesized, c.opts.assemble())
	span.End()

	if c.opts.Refine {
		_, span = c.tracer.Start(ctx, observability.SpanRefine)
		refined, refineErr := refine.Refine(res.Code, c.opts.Rules, c.opts.refine())
		span.End()

		if refineErr != nil {
			return nil, fmt.Errorf("refine: %w", refineErr)
		}

		res.Code = refined.Code
		res.Refined = refined.Applied
	}

	res.Converted = true
	res.Class = unit.Class.Name
	res.Bindings = synthesized.Bindings
	res.Props = synthesized.Props.Entries()
	res.Emits = synthesized.Emits

	return res, nil
}
