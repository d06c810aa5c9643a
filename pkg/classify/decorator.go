package classify

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

// parseDecorator reads a decorator node. Bare decorators such as
// `@Component` have no arguments.
func parseDecorator(tree *tsparse.Tree, node sitter.Node) Decorator {
	dec := Decorator{Line: tsparse.Line(node)}

	for _, expr := range tsparse.NamedChildren(node) {
		switch expr.Type() {
		case "call_expression":
			dec.Name = calleeName(tree, tsparse.Field(expr, "function"))
			dec.Args = parseArgs(tree, tsparse.Field(expr, "arguments"))
		case "identifier", "member_expression":
			dec.Name = calleeName(tree, expr)
		default:
			continue
		}

		break
	}

	dec.Kind = ParseDecoratorKind(dec.Name)

	return dec
}

// calleeName returns the last segment of a possibly qualified name.
func calleeName(tree *tsparse.Tree, node sitter.Node) string {
	text := tree.Text(node)
	if idx := strings.LastIndexByte(text, '.'); idx >= 0 {
		return text[idx+1:]
	}

	return text
}

func parseArgs(tree *tsparse.Tree, args sitter.Node) []Arg {
	if args.IsNull() {
		return nil
	}

	var out []Arg

	for _, arg := range tsparse.NamedChildren(args) {
		if arg.Type() == "comment" {
			continue
		}

		out = append(out, parseArg(tree, arg))
	}

	return out
}

func parseArg(tree *tsparse.Tree, node sitter.Node) Arg {
	raw := tree.Text(node)
	arg := Arg{Raw: raw, Text: raw}

	if value, ok := tree.StringValue(node); ok {
		arg.Text = value
		arg.IsString = true

		return arg
	}

	switch node.Type() {
	case "object":
		arg.IsObject = true
		arg.Entries = parseObject(tree, node)
	case "array":
		for _, elem := range tsparse.NamedChildren(node) {
			if elem.Type() == "comment" {
				continue
			}

			if value, ok := tree.StringValue(elem); ok {
				arg.Elements = append(arg.Elements, value)
			} else {
				arg.Elements = append(arg.Elements, tree.Text(elem))
			}
		}
	}

	return arg
}

func parseObject(tree *tsparse.Tree, node sitter.Node) []Entry {
	var entries []Entry

	for _, child := range tsparse.NamedChildren(node) {
		entry := Entry{Raw: tree.Text(child)}

		switch child.Type() {
		case "pair":
			value := tsparse.Field(child, "value")
			entry.Key = propertyKey(tree, tsparse.Field(child, "key"))
			entry.Value = tree.Text(value)

			if value.Type() == "object" || value.Type() == "array" {
				nested := parseArg(tree, value)
				entry.Nested = &nested
			}
		case "method_definition":
			entry.Key = propertyKey(tree, tsparse.Field(child, "name"))
			entry.Value = entry.Raw
		case "shorthand_property_identifier":
			entry.Key = entry.Raw
			entry.Value = entry.Raw
		case "spread_element":
		default:
			continue
		}

		entries = append(entries, entry)
	}

	return entries
}

func propertyKey(tree *tsparse.Tree, key sitter.Node) string {
	if value, ok := tree.StringValue(key); ok {
		return value
	}

	return tree.Text(key)
}
