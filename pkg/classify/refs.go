package classify

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

// scopeBarriers rebind `this`; references below them are left alone.
var scopeBarriers = map[string]bool{
	"function":                       true,
	"function_expression":            true,
	"function_declaration":           true,
	"generator_function":             true,
	"generator_function_declaration": true,
	"method_definition":              true,
	"class":                          true,
	"class_declaration":              true,
}

const emitMember = "$emit"

// collector gathers snippets for one class and records `this.$emit` events.
type collector struct {
	tree   *tsparse.Tree
	emits  []string
	events map[string]bool
}

func newCollector(tree *tsparse.Tree) *collector {
	return &collector{tree: tree, events: make(map[string]bool)}
}

// snippet captures node text with its `this` references. indent is the
// leading whitespace width of the owning member.
func (c *collector) snippet(node sitter.Node, indent int) Snippet {
	if node.IsNull() {
		return Snippet{}
	}

	base, _ := tsparse.Span(node)
	snip := Snippet{Text: c.tree.Text(node), Indent: indent}

	c.walk(node, base, &snip)

	return snip
}

func (c *collector) walk(node sitter.Node, base int, snip *Snippet) {
	switch {
	case scopeBarriers[node.Type()]:
		return
	case node.Type() == "member_expression":
		if ref, ok := c.thisRef(node, base); ok {
			snip.Refs = append(snip.Refs, ref)

			return
		}
	case node.Type() == "call_expression":
		c.recordEmit(node)
	}

	for _, child := range tsparse.NamedChildren(node) {
		c.walk(child, base, snip)
	}
}

func (c *collector) thisRef(node sitter.Node, base int) (ThisRef, bool) {
	object := tsparse.Field(node, "object")
	if object.IsNull() || object.Type() != "this" {
		return ThisRef{}, false
	}

	property := tsparse.Field(node, "property")
	if property.IsNull() || property.Type() != "property_identifier" {
		return ThisRef{}, false
	}

	start, end := tsparse.Span(node)

	return ThisRef{Start: start - base, End: end - base, Name: c.tree.Text(property)}, true
}

func (c *collector) recordEmit(call sitter.Node) {
	callee := tsparse.Field(call, "function")
	if callee.IsNull() || callee.Type() != "member_expression" {
		return
	}

	ref, ok := c.thisRef(callee, 0)
	if !ok || ref.Name != emitMember {
		return
	}

	args := tsparse.NamedChildren(tsparse.Field(call, "arguments"))
	if len(args) == 0 {
		return
	}

	if event, isString := c.tree.StringValue(args[0]); isString {
		c.addEmit(event)
	}
}

func (c *collector) addEmit(event string) {
	if event == "" || c.events[event] {
		return
	}

	c.events[event] = true
	c.emits = append(c.emits, event)
}

// returnsValue reports whether body returns a value from its own scope.
func returnsValue(node sitter.Node) bool {
	if node.IsNull() {
		return false
	}

	switch node.Type() {
	case "return_statement":
		return node.NamedChildCount() > 0
	case "arrow_function":
		return false
	}

	if scopeBarriers[node.Type()] {
		return false
	}

	for _, child := range tsparse.NamedChildren(node) {
		if returnsValue(child) {
			return true
		}
	}

	return false
}

// lineIndent returns the whitespace width before the first non-blank byte
// of the line containing offset.
func lineIndent(src []byte, offset int) int {
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}

	width := 0
	for start+width < len(src) && (src[start+width] == ' ' || src[start+width] == '\t') {
		width++
	}

	return width
}
