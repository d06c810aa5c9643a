package refine

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/vueconv/pkg/assemble"
)

// AsyncComponentsRule names the built-in `<script setup>` rewrite of lazily
// imported components.
const AsyncComponentsRule = "async-components"

// Options tunes refinement.
type Options struct {
	// Context is the setup context name the rule patterns refer to.
	Context string
	// ImportSource replaces FrameworkPath in rule imports.
	ImportSource string
	// ScriptSetup selects the `<script setup>` layout: preludes go after
	// the import block and lazy components become defineAsyncComponent.
	ScriptSetup bool
}

func (o Options) framework() string {
	switch {
	case o.ImportSource != "":
		return o.ImportSource
	case o.ScriptSetup:
		return assemble.SetupImportSource
	default:
		return assemble.DefaultImportSource
	}
}

// Output is the refined code and the names of the rules that fired.
type Output struct {
	Code    string   `json:"code"`
	Applied []string `json:"applied,omitempty"`
}

var (
	setupLine     = regexp.MustCompile(`(?m)^( *)setup\([^)\n]*\) \{\n`)
	importLine    = regexp.MustCompile(`(?m)^import [^\n]*\n`)
	componentsObj = regexp.MustCompile(`(?m)^( *)components: \{([^}]*)\},?\n`)
	lazyComponent = regexp.MustCompile(`(?m)^\s*(\w+):\s*\(\)\s*=>\s*(import\(\s*['"][^'"]+['"]\s*\)),?[ \t]*$`)
	emptyOptions  = regexp.MustCompile(`\n?defineOptions\(\{\s*\}\);\n`)
)

// Refine applies rules in order to converted code.
func Refine(code string, rules *RuleSet, opts Options) (Output, error) {
	out := Output{Code: code}

	var preludes []string

	if rules != nil {
		for _, rule := range rules.Rules {
			re, err := rule.compile(opts.Context)
			if err != nil {
				return Output{}, err
			}

			if !re.MatchString(out.Code) {
				continue
			}

			if rule.Replacement != nil {
				out.Code = re.ReplaceAllString(out.Code, *rule.Replacement)
			}

			if rule.Prelude != "" && !slices.Contains(preludes, rule.Prelude) {
				preludes = append(preludes, rule.Prelude)
			}

			if rule.Import != nil {
				path := rule.Import.Path
				if path == FrameworkPath {
					path = opts.framework()
				}

				out.Code = AddImport(out.Code, path, rule.Import.Name, rule.Import.Default)
			}

			out.Applied = append(out.Applied, rule.Name)
		}
	}

	out.Code = insertPreludes(out.Code, preludes, opts.ScriptSetup)

	if opts.ScriptSetup {
		if code, ok := asyncComponents(out.Code, opts.framework()); ok {
			out.Code = code
			out.Applied = append(out.Applied, AsyncComponentsRule)
		}
	}

	return out, nil
}

// insertPreludes declares preludes at the top of setup, or after the import
// block for `<script setup>`.
func insertPreludes(code string, preludes []string, scriptSetup bool) string {
	if len(preludes) == 0 {
		return code
	}

	if scriptSetup {
		block := "\n" + strings.Join(preludes, "\n") + "\n"

		return insertAfterImports(code, block)
	}

	loc := setupLine.FindStringSubmatchIndex(code)
	if loc == nil {
		return code
	}

	indent := code[loc[2]:loc[3]] + "  "

	var sb strings.Builder

	for _, prelude := range preludes {
		for line := range strings.SplitSeq(prelude, "\n") {
			sb.WriteString(indent + line + "\n")
		}

		sb.WriteByte('\n')
	}

	return code[:loc[1]] + sb.String() + code[loc[1]:]
}

func insertAfterImports(code, block string) string {
	end := 0

	for _, loc := range importLine.FindAllStringIndex(code, -1) {
		if loc[0] != end {
			break
		}

		end = loc[1]
	}

	return code[:end] + block + code[end:]
}

// asyncComponents turns `Name: () => import("...")` entries of a components
// option into defineAsyncComponent declarations.
func asyncComponents(code, framework string) (string, bool) {
	loc := componentsObj.FindStringSubmatchIndex(code)
	if loc == nil {
		return code, false
	}

	body := code[loc[4]:loc[5]]

	matches := lazyComponent.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return code, false
	}

	decls := make([]string, 0, len(matches))
	for _, m := range matches {
		decls = append(decls, "const "+capitalize(m[1])+" = defineAsyncComponent(() => "+m[2]+");")
	}

	rest := lazyComponent.ReplaceAllString(body, "")

	replacement := ""
	if strings.TrimSpace(rest) != "" {
		replacement = code[loc[0]:loc[4]] + strings.TrimLeft(rest, "\n") + code[loc[5]:loc[1]]
	}

	code = code[:loc[0]] + replacement + code[loc[1]:]
	code = emptyOptions.ReplaceAllString(code, "")
	code = insertAfterImports(code, "\n"+strings.Join(decls, "\n")+"\n")

	return AddImport(code, framework, "defineAsyncComponent", false), true
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}

// AddImport makes name importable from path. An existing import of path is
// extended in place; otherwise a new import follows the import block.
func AddImport(code, path, name string, isDefault bool) string {
	re := regexp.MustCompile(`(?m)^import ([^\n]*?) from ["']` + regexp.QuoteMeta(path) + `["'];?[ \t]*$`)

	for _, loc := range re.FindAllStringSubmatchIndex(code, -1) {
		clause := parseClause(code[loc[2]:loc[3]])
		if clause == nil {
			continue
		}

		if clause.has(name, isDefault) {
			return code
		}

		if isDefault {
			if clause.def != "" {
				continue
			}

			clause.def = name
		} else {
			clause.named = append(clause.named, name)
		}

		return code[:loc[0]] + clause.render(path) + code[loc[1]:]
	}

	fresh := (&importClause{}).with(name, isDefault).render(path) + "\n"

	if !importLine.MatchString(code) {
		return fresh + code
	}

	return insertAfterImports(code, fresh)
}

// importClause is the part of an import between `import` and `from`.
type importClause struct {
	def   string
	named []string
}

// parseClause returns nil for clauses it cannot extend, such as namespace
// imports.
func parseClause(text string) *importClause {
	if strings.Contains(text, "*") {
		return nil
	}

	clause := &importClause{}

	head, braces, hasBraces := strings.Cut(text, "{")
	clause.def = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(head), ","))

	if hasBraces {
		inner, _, _ := strings.Cut(braces, "}")

		for part := range strings.SplitSeq(inner, ",") {
			if part = strings.TrimSpace(part); part != "" {
				clause.named = append(clause.named, part)
			}
		}
	}

	return clause
}

func (c *importClause) has(name string, isDefault bool) bool {
	if isDefault {
		return c.def == name
	}

	for _, named := range c.named {
		local := named
		if _, alias, ok := strings.Cut(named, " as "); ok {
			local = strings.TrimSpace(alias)
		}

		if named == name || local == name {
			return true
		}
	}

	return false
}

func (c *importClause) with(name string, isDefault bool) *importClause {
	if isDefault {
		c.def = name
	} else {
		c.named = append(c.named, name)
	}

	return c
}

func (c *importClause) render(path string) string {
	parts := make([]string, 0, 2)

	if c.def != "" {
		parts = append(parts, c.def)
	}

	if len(c.named) > 0 {
		parts = append(parts, "{ "+strings.Join(c.named, ", ")+" }")
	}

	return "import " + strings.Join(parts, ", ") + " from " + strconv.Quote(path) + ";"
}
