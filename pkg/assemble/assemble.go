// Package assemble renders synthesized bindings into a single source unit
// whose default export is a defineComponent call.
package assemble

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/vueconv/pkg/classify"
	"github.com/Sumatoshi-tech/vueconv/pkg/synth"
	"github.com/Sumatoshi-tech/vueconv/pkg/textutil"
)

// DefaultImportSource provides defineComponent and the reactivity API.
const DefaultImportSource = "@vue/composition-api"

// SetupImportSource is the default import source of `<script setup>` output.
const SetupImportSource = "vue"

const (
	defineComponent = "defineComponent"
	optionIndent    = "  "
	setupIndent     = "    "
)

// Options tunes assembly.
type Options struct {
	// ImportSource is the module the framework functions are imported from.
	ImportSource string
	// Context is the second setup parameter name.
	Context string
	// ScriptSetup renders top-level `<script setup>` code instead of a
	// defineComponent export.
	ScriptSetup bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{ImportSource: DefaultImportSource, Context: "ctx"}
}

// Imports returns the framework names to import, defineComponent first.
func Imports(result *synth.Result) []string {
	names := []string{defineComponent}

	for _, use := range result.Uses() {
		if use != defineComponent {
			names = append(names, use)
		}
	}

	return names
}

// Assemble renders the converted unit. The converted class and any
// `export default ClassName` statement are already absent from unit.
func Assemble(unit *classify.Unit, result *synth.Result, opts Options) string {
	if opts.ScriptSetup {
		return assembleSetup(unit, result, opts)
	}

	if opts.ImportSource == "" {
		opts.ImportSource = DefaultImportSource
	}

	if opts.Context == "" {
		opts.Context = "ctx"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "import { %s } from %s;\n", strings.Join(Imports(result), ", "), strconv.Quote(opts.ImportSource))

	for _, stmt := range unit.Statements {
		sb.WriteString(stmt.Text)
		sb.WriteByte('\n')
	}

	sb.WriteString("\nexport default defineComponent({\n")

	for _, opt := range result.Options {
		sb.WriteString(optionIndent + opt.Raw + ",\n")
	}

	for _, member := range result.Passthrough {
		if member.Comment {
			sb.WriteString(textutil.Indent(member.Code, optionIndent) + "\n")

			continue
		}

		sb.WriteString(textutil.Indent(member.Code, optionIndent) + ",\n")
	}

	writeProps(&sb, result.Props)
	writeEmits(&sb, result.Emits)
	writeSetup(&sb, result, opts.Context)

	sb.WriteString("});\n")

	return sb.String()
}

// PropsObject renders the property schema as an object literal.
func PropsObject(props *synth.PropSchema) string {
	if props == nil || props.Len() == 0 {
		return "{}"
	}

	var sb strings.Builder

	sb.WriteString("{\n")

	for _, entry := range props.Entries() {
		fmt.Fprintf(&sb, "%s%s: %s,\n", optionIndent, entry.Name, textutil.IndentRest(entry.Options, optionIndent))
	}

	sb.WriteString("}")

	return sb.String()
}

// EmitsArray renders event names as an array literal.
func EmitsArray(emits []string) string {
	quoted := make([]string, 0, len(emits))
	for _, event := range emits {
		quoted = append(quoted, strconv.Quote(event))
	}

	return "[" + strings.Join(quoted, ", ") + "]"
}

func writeProps(sb *strings.Builder, props *synth.PropSchema) {
	sb.WriteString(optionIndent + "props: " + textutil.IndentRest(PropsObject(props), optionIndent) + ",\n")
}

func writeEmits(sb *strings.Builder, emits []string) {
	if len(emits) == 0 {
		return
	}

	sb.WriteString(optionIndent + "emits: " + EmitsArray(emits) + ",\n")
}

func writeSetup(sb *strings.Builder, result *synth.Result, context string) {
	propsParam := "props"
	if result.Props == nil || result.Props.Len() == 0 {
		propsParam = "_props"
	}

	fmt.Fprintf(sb, "%ssetup(%s, %s) {\n", optionIndent, propsParam, context)

	for _, b := range result.Bindings {
		sb.WriteString(textutil.Indent(b.Code, setupIndent))
		sb.WriteString("\n\n")
	}

	if exports := result.Exports(); len(exports) > 0 {
		fmt.Fprintf(sb, "%sreturn { %s };\n", setupIndent, strings.Join(exports, ", "))
	} else {
		sb.WriteString(setupIndent + "return {};\n")
	}

	sb.WriteString(optionIndent + "},\n")
}

// assembleSetup renders the `<script setup>` layout: compiler macros for
// props, emits and the remaining options, then the bindings at top level.
func assembleSetup(unit *classify.Unit, result *synth.Result, opts Options) string {
	source := opts.ImportSource
	if source == "" || source == DefaultImportSource {
		source = SetupImportSource
	}

	var sb strings.Builder

	if uses := result.Uses(); len(uses) > 0 {
		fmt.Fprintf(&sb, "import { %s } from %s;\n", strings.Join(uses, ", "), strconv.Quote(source))
	}

	for _, stmt := range unit.Statements {
		sb.WriteString(stmt.Text)
		sb.WriteByte('\n')
	}

	if len(result.Options) > 0 || len(result.Passthrough) > 0 {
		sb.WriteString("\ndefineOptions({\n")

		for _, opt := range result.Options {
			sb.WriteString(optionIndent + opt.Raw + ",\n")
		}

		for _, member := range result.Passthrough {
			sb.WriteString(textutil.Indent(member.Code, optionIndent))

			if !member.Comment {
				sb.WriteByte(',')
			}

			sb.WriteByte('\n')
		}

		sb.WriteString("});\n")
	}

	if result.Props != nil && result.Props.Len() > 0 {
		sb.WriteString("\nconst props = defineProps(" + PropsObject(result.Props) + ");\n")
	}

	if len(result.Emits) > 0 {
		sb.WriteString("\nconst emit = defineEmits(" + EmitsArray(result.Emits) + ");\n")
	}

	for _, b := range result.Bindings {
		sb.WriteString("\n" + b.Code + "\n")
	}

	return sb.String()
}
