// Package highlight colors converted source for terminal output.
package highlight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

// Class is a token category.
type Class int

// Token categories.
const (
	Plain Class = iota
	Keyword
	String
	Comment
	Number
	Type
	Constant
	Decorator
)

// Theme maps token categories to colors. Missing categories print plain.
type Theme map[Class]*color.Color

// DefaultTheme returns the CLI palette. It honors color.NoColor.
func DefaultTheme() Theme {
	return Theme{
		Keyword:   color.New(color.FgBlue),
		String:    color.New(color.FgGreen),
		Comment:   color.New(color.FgHiBlack),
		Number:    color.New(color.FgMagenta),
		Type:      color.New(color.FgYellow),
		Constant:  color.New(color.FgCyan),
		Decorator: color.New(color.FgRed),
	}
}

// Force enables color output regardless of the terminal.
func (t Theme) Force() Theme {
	for _, c := range t {
		c.EnableColor()
	}

	return t
}

// atomic nodes are colored as a whole.
var atomic = map[string]Class{
	"comment":          Comment,
	"string":           String,
	"template_string":  String,
	"regex":            String,
	"number":           Number,
	"true":             Constant,
	"false":            Constant,
	"null":             Constant,
	"undefined":        Constant,
	"this":             Constant,
	"type_identifier":  Type,
	"predefined_type":  Type,
	"decorator_marker": Decorator,
}

// Highlighter colors source through the grammar's leaves.
type Highlighter struct {
	parser *tsparse.Parser
	theme  Theme
}

// New creates a highlighter.
func New(parser *tsparse.Parser, theme Theme) *Highlighter {
	return &Highlighter{parser: parser, theme: theme}
}

// Render returns src with ANSI colors. Components are colored inside their
// script block only. Unparseable regions print plain.
func (h *Highlighter) Render(ctx context.Context, lang tsparse.Language, src []byte) (string, error) {
	if lang != tsparse.LangVue {
		return h.render(ctx, lang, src)
	}

	block, err := h.parser.ExtractScript(ctx, src)
	if errors.Is(err, tsparse.ErrNoScriptBlock) {
		return string(src), nil
	}

	if err != nil {
		return "", fmt.Errorf("highlight component: %w", err)
	}

	script, err := h.render(ctx, block.Lang, block.Content(src))
	if err != nil {
		return "", err
	}

	return string(src[:block.Start]) + script + string(src[block.End:]), nil
}

func (h *Highlighter) render(ctx context.Context, lang tsparse.Language, src []byte) (string, error) {
	tree, err := h.parser.ParseLenient(ctx, lang, src)
	if err != nil {
		return "", fmt.Errorf("highlight: %w", err)
	}
	defer tree.Close()

	w := &writer{src: src, theme: h.theme}
	w.walk(tree.Root())
	w.sb.Write(src[w.last:])

	return w.sb.String(), nil
}

type writer struct {
	src   []byte
	theme Theme
	sb    strings.Builder
	last  int
}

func (w *writer) walk(node sitter.Node) {
	if node.IsNull() {
		return
	}

	if class, ok := classOf(node); ok {
		w.emit(node, class)

		return
	}

	count := node.ChildCount()
	if count == 0 {
		w.emit(node, Plain)

		return
	}

	for idx := range count {
		w.walk(node.Child(idx))
	}
}

func classOf(node sitter.Node) (Class, bool) {
	if class, ok := atomic[node.Type()]; ok {
		return class, true
	}

	if node.Type() == "@" {
		return Decorator, true
	}

	if !node.IsNamed() && node.ChildCount() == 0 && isWord(node.Type()) {
		return Keyword, true
	}

	return Plain, false
}

func isWord(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}

	return true
}

func (w *writer) emit(node sitter.Node, class Class) {
	start, end := tsparse.Span(node)
	if start < w.last || end > len(w.src) {
		return
	}

	w.sb.Write(w.src[w.last:start])

	text := string(w.src[start:end])

	if c, ok := w.theme[class]; ok && class != Plain {
		// Color each line separately so pagers keep state per line.
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if line != "" {
				lines[i] = c.Sprint(line)
			}
		}

		text = strings.Join(lines, "\n")
	}

	w.sb.WriteString(text)
	w.last = end
}
