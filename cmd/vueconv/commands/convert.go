package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/vueconv/pkg/config"
	"github.com/Sumatoshi-tech/vueconv/pkg/convert"
	"github.com/Sumatoshi-tech/vueconv/pkg/diagnostic"
	"github.com/Sumatoshi-tech/vueconv/pkg/highlight"
	"github.com/Sumatoshi-tech/vueconv/pkg/observability"
	"github.com/Sumatoshi-tech/vueconv/pkg/refine"
	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

// Sentinel errors for the convert command.
var (
	// ErrConversionFailed reports files that could not be converted.
	ErrConversionFailed = errors.New("conversion failed")
	// ErrWarnings reports warnings under --fail-on-warning.
	ErrWarnings = errors.New("conversion produced warnings")
	// ErrFlagConflict reports mutually exclusive output flags.
	ErrFlagConflict = errors.New("conflicting flags")
	// ErrUnknownLanguage reports an unsupported --lang value.
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrInvalidColor reports an unsupported --color value.
	ErrInvalidColor = errors.New("invalid color mode")
)

const (
	stdinArg      = "-"
	stdinFilename = "stdin.ts"

	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

type convertFlags struct {
	write         bool
	diff          bool
	jsonOut       bool
	summary       bool
	dump          bool
	failOnWarning bool
	color         string
	lang          string
	stdinName     string
	workers       int

	scriptSetup  bool
	refine       bool
	rules        string
	rewriteThis  bool
	strict       bool
	context      string
	importSource string
	formatCmd    string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	flags := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert [path...]",
		Short: "Convert Vue class components to the Composition API",
		Long: `Convert Vue class components (vue-property-decorator / vue-class-component)
to Composition API components.

Arguments are files or directories; directories are walked for the
configured extensions. With no argument, or "-", the source is read from stdin.

Examples:
  vueconv convert src/components/Card.vue          # print the converted file
  vueconv convert --diff src/                      # show what would change
  vueconv convert --write --script-setup src/      # rewrite files in place
  cat Card.ts | vueconv convert --lang typescript  # convert stdin
  vueconv convert -w --format-cmd "prettier --stdin-filepath {file}" src/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.write, "write", "w", false, "rewrite files in place")
	cmd.Flags().BoolVarP(&flags.diff, "diff", "d", false, "print a unified diff instead of the converted code")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "print a summary table (default for several files)")
	cmd.Flags().BoolVar(&flags.dump, "dump", false, "dump the full conversion results to stderr")
	cmd.Flags().BoolVar(&flags.failOnWarning, "fail-on-warning", false, "exit non-zero when a conversion reports warnings")
	cmd.Flags().StringVar(&flags.color, "color", colorAuto, "colorize output: auto, always or never")
	cmd.Flags().StringVar(&flags.lang, "lang", "", "force the language: typescript, tsx, javascript or vue")
	cmd.Flags().StringVar(&flags.stdinName, "stdin-filename", stdinFilename, "file name used to detect the language of stdin")
	cmd.Flags().IntVarP(&flags.workers, "workers", "j", 0, "parallel conversions (default: batch.workers, or one per CPU)")

	addConvertOptionFlags(cmd, flags)

	return cmd
}

func addConvertOptionFlags(cmd *cobra.Command, flags *convertFlags) {
	cmd.Flags().BoolVar(&flags.scriptSetup, "script-setup", config.DefaultScriptSetup, "emit <script setup> code")
	cmd.Flags().BoolVar(&flags.refine, "refine", config.DefaultRefineEnabled, "apply refinement rules")
	cmd.Flags().StringVar(&flags.rules, "rules", "", "refinement rule file (implies --refine)")
	cmd.Flags().BoolVar(&flags.rewriteThis, "rewrite-this", config.DefaultRewriteThis, "rewrite this.x references")
	cmd.Flags().BoolVar(&flags.strict, "strict", config.DefaultStrict, "fail on setters without a getter")
	cmd.Flags().StringVar(&flags.context, "context", config.DefaultContext, "name of the setup context argument")
	cmd.Flags().StringVar(&flags.importSource, "import-source", config.DefaultImportSource,
		"module defineComponent and the reactivity API are imported from")
	cmd.Flags().StringVar(&flags.formatCmd, "format-cmd", config.DefaultFormatCommand,
		"external formatter reading stdin, e.g. \"prettier --stdin-filepath {file}\"; empty disables")
}

// convertOptions merges the flags the user set into the configured options.
func convertOptions(cmd *cobra.Command, cfg *config.Config, flags *convertFlags) (convert.Options, error) {
	opts, err := cfg.ConvertOptions()
	if err != nil {
		return convert.Options{}, err
	}

	changed := cmd.Flags().Changed

	if changed("script-setup") {
		opts.ScriptSetup = flags.scriptSetup
	}

	if changed("refine") {
		opts.Refine = flags.refine
	}

	if changed("rewrite-this") {
		opts.RewriteThis = flags.rewriteThis
	}

	if changed("strict") {
		opts.Strict = flags.strict
	}

	if changed("context") {
		opts.Context = flags.context
	}

	if changed("import-source") {
		opts.ImportSource = flags.importSource
	}

	if changed("format-cmd") {
		opts.FormatCommand = flags.formatCmd
	}

	if flags.rules != "" {
		rules, loadErr := refine.LoadRulesFile(flags.rules)
		if loadErr != nil {
			return convert.Options{}, fmt.Errorf("--rules: %w", loadErr)
		}

		opts.Refine = true
		opts.Rules = rules
	}

	if flags.lang != "" {
		lang, langErr := parseLanguage(flags.lang)
		if langErr != nil {
			return convert.Options{}, langErr
		}

		opts.Language = lang
	}

	return opts, nil
}

func parseLanguage(name string) (tsparse.Language, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ts", "typescript":
		return tsparse.LangTypeScript, nil
	case "tsx":
		return tsparse.LangTSX, nil
	case "js", "jsx", "javascript":
		return tsparse.LangJavaScript, nil
	case "vue":
		return tsparse.LangVue, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownLanguage, name)
	}
}

func runConvert(cmd *cobra.Command, args []string, flags *convertFlags) error {
	if flags.write && (flags.diff || flags.jsonOut) {
		return fmt.Errorf("%w: --write cannot be combined with --diff or --json", ErrFlagConflict)
	}

	theme, err := colorTheme(flags.color)
	if err != nil {
		return err
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	opts, err := convertOptions(cmd, cfg, flags)
	if err != nil {
		return err
	}

	providers, err := initObservability(cmd, cfg, observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer shutdown(providers)

	red, conversion, err := newMetrics(providers)
	if err != nil {
		return err
	}

	conv := convert.New(opts,
		convert.WithTracer(providers.Tracer),
		convert.WithMetrics(red, conversion),
		convert.WithCache(cfg.Convert.CacheSize),
		convert.WithLogger(providers.Logger),
	)

	ctx := cmd.Context()

	var reports []fileReport

	if len(args) == 0 || (len(args) == 1 && args[0] == stdinArg) {
		if flags.write {
			return fmt.Errorf("%w: --write needs file arguments", ErrFlagConflict)
		}

		reports, err = convertStdin(cmd, conv, flags.stdinName)
	} else {
		var files []string

		files, err = collectFiles(args, cfg.Batch.Extensions, cfg.Batch.Exclude)
		if err != nil {
			return err
		}

		workers := cfg.Batch.Workers
		if cmd.Flags().Changed("workers") {
			workers = flags.workers
		}

		reports, err = convertFiles(ctx, conv, files, workers)
	}

	if err != nil {
		return err
	}

	providers.Logger.DebugContext(ctx, "conversion batch finished", "files", len(reports))

	return emitReports(cmd, reports, flags, theme)
}

func convertStdin(cmd *cobra.Command, conv *convert.Converter, name string) ([]fileReport, error) {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}

	report := fileReport{Path: name, Size: len(src), Source: string(src)}

	result, err := conv.Convert(cmd.Context(), name, src)
	if err != nil {
		report.Err = err
		report.Error = err.Error()
	} else {
		report.Result = result
	}

	return []fileReport{report}, nil
}

func newMetrics(providers observability.Providers) (*observability.REDMetrics, *observability.ConversionMetrics, error) {
	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return nil, nil, fmt.Errorf("create RED metrics: %w", err)
	}

	conversion, err := observability.NewConversionMetrics(providers.Meter)
	if err != nil {
		return nil, nil, fmt.Errorf("create conversion metrics: %w", err)
	}

	return red, conversion, nil
}

// colorTheme returns nil when output must stay plain.
func colorTheme(mode string) (highlight.Theme, error) {
	switch mode {
	case colorNever:
		return nil, nil
	case colorAuto:
		return highlight.DefaultTheme(), nil
	case colorAlways:
		return highlight.DefaultTheme().Force(), nil
	default:
		return nil, fmt.Errorf("%w: %q (want auto, always or never)", ErrInvalidColor, mode)
	}
}

func emitReports(cmd *cobra.Command, reports []fileReport, flags *convertFlags, theme highlight.Theme) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	quiet, _ := cmd.Flags().GetBool(FlagQuiet)

	if flags.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
	}

	var highlighter *highlight.Highlighter
	if theme != nil {
		highlighter = highlight.New(tsparse.NewParser(), theme)
	}

	failed, warnings := 0, 0

	for _, report := range reports {
		if report.Err != nil {
			failed++

			fmt.Fprintf(errOut, "%s: %v\n", report.Path, report.Err)

			continue
		}

		warnings += report.Result.Diagnostics.Count(diagnostic.SeverityWarning)

		if !quiet {
			for _, item := range report.Result.Diagnostics.Filter(diagnostic.SeverityWarning) {
				fmt.Fprintf(errOut, "%s: warning: %s\n", report.Path, item)
			}
		}

		if flags.dump {
			spew.Fdump(errOut, report.Result)
		}

		if flags.jsonOut {
			continue
		}

		if err := emitReport(cmd, report, flags, highlighter, len(reports) > 1); err != nil {
			return err
		}
	}

	if !quiet && (flags.summary || len(reports) > 1) {
		renderSummary(errOut, reports)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrConversionFailed, failed, len(reports))
	}

	if flags.failOnWarning && warnings > 0 {
		return fmt.Errorf("%w: %d warnings", ErrWarnings, warnings)
	}

	return nil
}

func emitReport(
	cmd *cobra.Command,
	report fileReport,
	flags *convertFlags,
	highlighter *highlight.Highlighter,
	several bool,
) error {
	out := cmd.OutOrStdout()
	result := report.Result

	switch {
	case flags.write:
		if !result.Converted || result.Code == report.Source {
			return nil
		}

		if err := writeFileAtomic(report.Path, []byte(result.Code)); err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "converted %s\n", report.Path)

		return nil
	case flags.diff:
		writeUnifiedDiff(out, report.Path, report.Source, result.Code, highlighter != nil)

		return nil
	}

	if several {
		fmt.Fprintf(out, "==> %s <==\n", report.Path)
	}

	code := result.Code

	if highlighter != nil {
		colored, err := highlighter.Render(cmd.Context(), result.Language, []byte(code))
		if err == nil {
			code = colored
		}
	}

	fmt.Fprint(out, code)

	return nil
}
