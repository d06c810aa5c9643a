package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/vueconv/pkg/convert"
	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

// Tool name constants.
const (
	ToolNameConvert = "vue_convert"
	ToolNameInspect = "vue_inspect"
)

// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
const MaxCodeInputBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrUnsupportedLanguage indicates the language is not supported by the parser.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// ConvertInput is the input schema for the vue_convert tool.
type ConvertInput struct {
	Code         string `json:"code"                    jsonschema:"component source to convert"`
	Filename     string `json:"filename,omitempty"      jsonschema:"file name used to pick the grammar (e.g. Card.vue)"`
	Language     string `json:"language,omitempty"      jsonschema:"typescript, tsx, javascript or vue; overrides filename"`
	ScriptSetup  *bool  `json:"script_setup,omitempty"  jsonschema:"emit <script setup> code instead of defineComponent"`
	Refine       *bool  `json:"refine,omitempty"        jsonschema:"apply the project refinement rules"`
	RewriteThis  *bool  `json:"rewrite_this,omitempty"  jsonschema:"rewrite this.x references (default true)"`
	Strict       *bool  `json:"strict,omitempty"        jsonschema:"fail on setters without a getter"`
	ImportSource string `json:"import_source,omitempty" jsonschema:"module defineComponent and the reactivity API come from"`
}

// InspectInput is the input schema for the vue_inspect tool.
type InspectInput struct {
	Code     string `json:"code"               jsonschema:"component source to inspect"`
	Filename string `json:"filename,omitempty" jsonschema:"file name used to pick the grammar (e.g. Card.vue)"`
	Language string `json:"language,omitempty" jsonschema:"typescript, tsx, javascript or vue; overrides filename"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// toolset builds converters from the server defaults and per-call inputs.
type toolset struct {
	base       convert.Options
	tracer     trace.Tracer
	red        *observability.REDMetrics
	conversion *observability.ConversionMetrics
}

func (ts *toolset) converter(opts convert.Options) *convert.Converter {
	extra := []convert.Option{convert.WithMetrics(ts.red, ts.conversion)}
	if ts.tracer != nil {
		extra = append(extra, convert.WithTracer(ts.tracer))
	}

	return convert.New(opts, extra...)
}

func (ts *toolset) handleConvert(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ConvertInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateCodeInput(input.Code); err != nil {
		return errorResult(err)
	}

	opts := ts.base

	lang, err := resolveLanguage(input.Language, input.Filename, input.Code)
	if err != nil {
		return errorResult(err)
	}

	opts.Language = lang

	applyBool(&opts.ScriptSetup, input.ScriptSetup)
	applyBool(&opts.Refine, input.Refine)
	applyBool(&opts.RewriteThis, input.RewriteThis)
	applyBool(&opts.Strict, input.Strict)

	if input.ImportSource != "" {
		opts.ImportSource = input.ImportSource
	}

	result, err := ts.converter(opts).Convert(ctx, input.Filename, []byte(input.Code))
	if err != nil {
		return errorResult(fmt.Errorf("convert: %w", err))
	}

	return jsonResult(result)
}

func (ts *toolset) handleInspect(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input InspectInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateCodeInput(input.Code); err != nil {
		return errorResult(err)
	}

	opts := ts.base

	lang, err := resolveLanguage(input.Language, input.Filename, input.Code)
	if err != nil {
		return errorResult(err)
	}

	opts.Language = lang

	inspection, err := ts.converter(opts).Inspect(ctx, input.Filename, []byte(input.Code))
	if err != nil {
		return errorResult(fmt.Errorf("inspect: %w", err))
	}

	return jsonResult(inspection)
}

func applyBool(dst *bool, value *bool) {
	if value != nil {
		*dst = *value
	}
}

// resolveLanguage picks the grammar from the explicit language, the file
// name, or the code itself, in that order.
func resolveLanguage(language, filename, code string) (tsparse.Language, error) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "":
	case "ts", "typescript":
		return tsparse.LangTypeScript, nil
	case "tsx":
		return tsparse.LangTSX, nil
	case "js", "javascript", "jsx":
		return tsparse.LangJavaScript, nil
	case "vue":
		return tsparse.LangVue, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	if filename != "" {
		lang, err := tsparse.DetectLanguage(filename, []byte(code))
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, filename)
		}

		return lang, nil
	}

	if strings.HasPrefix(strings.TrimSpace(code), "<") {
		return tsparse.LangVue, nil
	}

	return tsparse.LangTypeScript, nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateCodeInput(code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}
