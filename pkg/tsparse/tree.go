package tsparse

import (
	"math"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Tree is a parsed source unit. Nodes are valid until Close.
type Tree struct {
	tree   *sitter.Tree
	Source []byte
	Lang   Language
}

// Root returns the root node.
func (t *Tree) Root() sitter.Node {
	return t.tree.RootNode()
}

// Close releases the underlying tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// Text returns a copy of the node's source text.
func (t *Tree) Text(node sitter.Node) string {
	if node.IsNull() {
		return ""
	}

	start, end := Span(node)
	if end > len(t.Source) || start > end {
		return ""
	}

	return string(t.Source[start:end])
}

// Span returns the node's byte range as ints.
func Span(node sitter.Node) (start, end int) {
	return toInt(node.StartByte()), toInt(node.EndByte())
}

// Line returns the node's 1-based start line.
func Line(node sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// Column returns the node's 0-based start column in bytes.
func Column(node sitter.Node) int {
	return int(node.StartPoint().Column)
}

// NamedChildren returns the named children in order.
func NamedChildren(node sitter.Node) []sitter.Node {
	children := make([]sitter.Node, 0, node.NamedChildCount())

	for idx := range node.NamedChildCount() {
		children = append(children, node.NamedChild(idx))
	}

	return children
}

// HasToken reports whether node has an anonymous child token such as
// "async", "get", or "static".
func HasToken(node sitter.Node, token string) bool {
	for idx := range node.ChildCount() {
		child := node.Child(idx)
		if !child.IsNamed() && child.Type() == token {
			return true
		}
	}

	return false
}

// Field returns the child stored under a grammar field, possibly null.
func Field(node sitter.Node, name string) sitter.Node {
	return node.ChildByFieldName(name)
}

// StringValue returns the unquoted content of a string or template literal
// node and true; other node kinds return false.
func (t *Tree) StringValue(node sitter.Node) (string, bool) {
	switch node.Type() {
	case "string", "template_string":
	default:
		return "", false
	}

	raw := t.Text(node)

	const quotePair = 2
	if len(raw) < quotePair {
		return "", false
	}

	if node.Type() == "template_string" && strings.Contains(raw, "${") {
		return "", false
	}

	return raw[1 : len(raw)-1], true
}

func (t *Tree) syntaxError(node sitter.Node) *SyntaxError {
	snippet := strings.TrimSpace(t.Text(node))
	if len(snippet) > maxErrorSnippet {
		snippet = snippet[:maxErrorSnippet]
	}

	return &SyntaxError{
		Line:    Line(node),
		Column:  Column(node) + 1,
		Snippet: snippet,
	}
}

func toInt(v uint) int {
	if v > math.MaxInt {
		panic("tsparse: byte offset overflows int")
	}

	return int(v)
}
