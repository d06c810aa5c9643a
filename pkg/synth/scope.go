package synth

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/vueconv/pkg/classify"
	"github.com/Sumatoshi-tech/vueconv/pkg/textutil"
)

type symbolKind int

const (
	symbolUnknown symbolKind = iota
	symbolProp
	symbolReactive
	symbolFunction
)

// contextMembers are instance members that setup exposes on its context argument.
var contextMembers = map[string]string{
	"$emit":      "emit",
	"$attrs":     "attrs",
	"$slots":     "slots",
	"$parent":    "parent",
	"$root":      "root",
	"$listeners": "listeners",
	"$refs":      "refs",
}

// setupHelpers are context members that `<script setup>` reads through a
// composable instead of the setup context.
var setupHelpers = map[string]string{
	"$emit":  "emit",
	"$attrs": "attrs",
	"$slots": "slots",
}

// scope resolves `this.name` references to setup-scope identifiers.
type scope struct {
	symbols     map[string]symbolKind
	context     string
	rewrite     bool
	scriptSetup bool
	// helpers records the `<script setup>` helpers referenced so far.
	helpers []string
}

func newScope(class *classify.Class, opts Options) *scope {
	sc := &scope{
		symbols:     make(map[string]symbolKind),
		context:     opts.contextName(),
		rewrite:     opts.RewriteThis,
		scriptSetup: opts.ScriptSetup,
	}

	for _, opt := range class.OptionProps {
		sc.symbols[opt.Key] = symbolProp
	}

	for _, m := range class.Props {
		sc.symbols[m.Name] = symbolProp
	}

	for _, group := range [][]classify.Member{class.State, class.Getters, class.Setters} {
		for _, m := range group {
			sc.symbols[m.Name] = symbolReactive
		}
	}

	for _, group := range [][]classify.Member{class.Methods, class.Watchers} {
		for _, m := range group {
			sc.symbols[m.Name] = symbolFunction
		}
	}

	return sc
}

// resolve returns the setup-scope expression for `this.name`.
func (sc *scope) resolve(name string) string {
	if strings.HasPrefix(name, "$") {
		if helper, ok := setupHelpers[name]; ok && sc.scriptSetup {
			if !slices.Contains(sc.helpers, helper) {
				sc.helpers = append(sc.helpers, helper)
			}

			return helper
		}

		if member, ok := contextMembers[name]; ok {
			return sc.context + "." + member
		}

		return sc.context + ".root." + name
	}

	switch sc.symbols[name] {
	case symbolProp:
		if sc.scriptSetup {
			return propsArg + "." + name
		}

		return name + ".value"
	case symbolReactive:
		return name + ".value"
	default:
		return name
	}
}

// render rewrites the snippet's `this` references and strips the member's
// indentation from continuation lines.
func (sc *scope) render(snip classify.Snippet) string {
	text := snip.Text

	if sc.rewrite && len(snip.Refs) > 0 {
		var sb strings.Builder

		last := 0

		for _, ref := range snip.Refs {
			if ref.Start < last || ref.End > len(text) {
				continue
			}

			sb.WriteString(text[last:ref.Start])
			sb.WriteString(sc.resolve(ref.Name))
			last = ref.End
		}

		sb.WriteString(text[last:])
		text = sb.String()
	}

	return textutil.Dedent(text, snip.Indent)
}

// watchSource renders the first argument of watch() for a @Watch target.
// Identifiers stay bare; dotted paths become getters.
func (sc *scope) watchSource(target string) string {
	head, rest, dotted := strings.Cut(target, ".")

	if !sc.rewrite {
		return getter(target, dotted)
	}

	if strings.HasPrefix(head, "$") {
		return "() => " + sc.resolve(head) + suffix(rest, dotted)
	}

	switch sc.symbols[head] {
	case symbolProp, symbolReactive:
		if sc.symbols[head] == symbolProp && sc.scriptSetup {
			return "() => " + propsArg + "." + head + suffix(rest, dotted)
		}

		if !dotted {
			return head
		}

		return "() => " + head + ".value." + rest
	default:
		return getter(target, dotted)
	}
}

func getter(path string, dotted bool) string {
	if !dotted {
		return path
	}

	return "() => " + path
}

func suffix(rest string, dotted bool) string {
	if !dotted {
		return ""
	}

	return "." + rest
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
