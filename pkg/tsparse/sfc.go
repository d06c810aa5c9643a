package tsparse

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// ErrNoScriptBlock reports a single-file component without a convertible <script>.
var ErrNoScriptBlock = errors.New("no script block")

// ScriptBlock locates the `<script>` body of a single-file component.
type ScriptBlock struct {
	// Start and End delimit the raw script text in the component source.
	Start int
	End   int
	// Lang is the grammar selected from the lang attribute.
	Lang Language
	// Setup is set for `<script setup>` blocks.
	Setup bool
	// TagStart and TagEnd delimit the opening `<script ...>` tag.
	TagStart int
	TagEnd   int
}

// Content returns the script text from the component source.
func (sb ScriptBlock) Content(src []byte) []byte {
	return src[sb.Start:sb.End]
}

// Splice replaces the script body with replacement and returns the new component.
func (sb ScriptBlock) Splice(src []byte, replacement string) []byte {
	out := make([]byte, 0, len(src)-(sb.End-sb.Start)+len(replacement))
	out = append(out, src[:sb.Start]...)
	out = append(out, replacement...)
	out = append(out, src[sb.End:]...)

	return out
}

// SpliceTag replaces both the opening tag and the script body.
func (sb ScriptBlock) SpliceTag(src []byte, tag, replacement string) []byte {
	out := make([]byte, 0, len(src)-(sb.End-sb.TagStart)+len(tag)+len(replacement))
	out = append(out, src[:sb.TagStart]...)
	out = append(out, tag...)
	out = append(out, replacement...)
	out = append(out, src[sb.End:]...)

	return out
}

// ExtractScript finds the first non-setup `<script>` block of a component.
func (p *Parser) ExtractScript(ctx context.Context, src []byte) (ScriptBlock, error) {
	tree, err := p.ParseLenient(ctx, LangVue, src)
	if err != nil {
		return ScriptBlock{}, fmt.Errorf("parse component: %w", err)
	}
	defer tree.Close()

	for _, child := range NamedChildren(tree.Root()) {
		if child.Type() != "script_element" {
			continue
		}

		block, ok := tree.scriptBlock(child)
		if ok && !block.Setup {
			return block, nil
		}
	}

	return ScriptBlock{}, ErrNoScriptBlock
}

func (t *Tree) scriptBlock(element sitter.Node) (ScriptBlock, bool) {
	var (
		block ScriptBlock
		found bool
		lang  string
	)

	for _, child := range NamedChildren(element) {
		switch child.Type() {
		case "start_tag":
			block.TagStart, block.TagEnd = Span(child)

			for _, attr := range NamedChildren(child) {
				if attr.Type() != "attribute" {
					continue
				}

				name, value := t.attribute(attr)

				switch name {
				case "lang":
					lang = value
				case "setup":
					block.Setup = true
				}
			}
		case "raw_text":
			block.Start, block.End = Span(child)
			found = true
		}
	}

	block.Lang = ScriptLanguage(lang)

	return block, found
}

func (t *Tree) attribute(attr sitter.Node) (name, value string) {
	for _, part := range NamedChildren(attr) {
		switch part.Type() {
		case "attribute_name":
			name = t.Text(part)
		case "attribute_value":
			value = t.Text(part)
		case "quoted_attribute_value":
			for _, inner := range NamedChildren(part) {
				if inner.Type() == "attribute_value" {
					value = t.Text(inner)
				}
			}
		}
	}

	return name, value
}
