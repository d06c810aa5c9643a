package classify

import (
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/vueconv/pkg/diagnostic"
	"github.com/Sumatoshi-tech/vueconv/pkg/levenshtein"
	"github.com/Sumatoshi-tech/vueconv/pkg/textutil"
	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

// lifecycleHooks is the recognized lifecycle vocabulary of class components.
var lifecycleHooks = map[string]bool{
	"beforeCreate":    true,
	"created":         true,
	"beforeMount":     true,
	"mounted":         true,
	"beforeUpdate":    true,
	"updated":         true,
	"activated":       true,
	"deactivated":     true,
	"beforeDestroy":   true,
	"beforeUnmount":   true,
	"destroyed":       true,
	"unmounted":       true,
	"errorCaptured":   true,
	"renderTracked":   true,
	"renderTriggered": true,
	"serverPrefetch":  true,
}

// passthroughMethods are emitted into the component options unchanged.
var passthroughMethods = map[string]bool{
	"render": true,
	"data":   true,
}

// IsLifecycleHook reports whether name is a recognized lifecycle hook.
func IsLifecycleHook(name string) bool {
	return lifecycleHooks[name]
}

// classCandidate is a top-level class with the decorators attached to it.
type classCandidate struct {
	statement     sitter.Node
	class         sitter.Node
	decorators    []sitter.Node
	defaultExport bool
}

// Analyze classifies the component class of a parsed unit. Units without a
// class yield a nil Class and all statements unchanged.
func Analyze(tree *tsparse.Tree, diags *diagnostic.Diagnostics) *Unit {
	root := tree.Root()
	statements := tsparse.NamedChildren(root)

	chosen := -1

	var candidates []classCandidate

	for _, stmt := range statements {
		cand, ok := findClass(stmt)
		if !ok {
			continue
		}

		candidates = append(candidates, cand)

		if chosen < 0 || (cand.defaultExport && !candidates[chosen].defaultExport) {
			chosen = len(candidates) - 1
		}
	}

	unit := &Unit{}

	if chosen < 0 {
		diags.AddInfo(diagnostic.CodeNoClass, "no class declaration found; source left unchanged", "", 0)

		for _, stmt := range statements {
			unit.Statements = append(unit.Statements, Statement{Text: tree.Text(stmt), Line: tsparse.Line(stmt)})
		}

		return unit
	}

	target := candidates[chosen]
	unit.Class = classifyClass(tree, target, diags)

	for _, stmt := range statements {
		if sameNode(stmt, target.statement) {
			continue
		}

		if isDefaultExportOf(tree, stmt, unit.Class.Name) {
			continue
		}

		if _, isClass := findClass(stmt); isClass {
			diags.AddWarning(diagnostic.CodeExtraClass,
				"additional class kept verbatim; only one class is converted", "", tsparse.Line(stmt))
		}

		unit.Statements = append(unit.Statements, Statement{Text: tree.Text(stmt), Line: tsparse.Line(stmt)})
	}

	return unit
}

func sameNode(a, b sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func findClass(stmt sitter.Node) (classCandidate, bool) {
	cand := classCandidate{statement: stmt}

	switch stmt.Type() {
	case "class_declaration", "abstract_class_declaration":
		cand.class = stmt
	case "export_statement":
		cand.defaultExport = tsparse.HasToken(stmt, "default")

		for _, child := range tsparse.NamedChildren(stmt) {
			if child.Type() == "decorator" {
				cand.decorators = append(cand.decorators, child)
			}
		}

		decl := tsparse.Field(stmt, "declaration")
		if decl.IsNull() {
			decl = tsparse.Field(stmt, "value")
		}

		if decl.IsNull() {
			return cand, false
		}

		switch decl.Type() {
		case "class_declaration", "abstract_class_declaration", "class":
			cand.class = decl
		default:
			return cand, false
		}
	default:
		return cand, false
	}

	for _, child := range tsparse.NamedChildren(cand.class) {
		if child.Type() == "decorator" {
			cand.decorators = append(cand.decorators, child)
		}
	}

	return cand, true
}

func isDefaultExportOf(tree *tsparse.Tree, stmt sitter.Node, className string) bool {
	if className == "" || stmt.Type() != "export_statement" || !tsparse.HasToken(stmt, "default") {
		return false
	}

	value := tsparse.Field(stmt, "value")

	return !value.IsNull() && value.Type() == "identifier" && tree.Text(value) == className
}

type classBuilder struct {
	tree  *tsparse.Tree
	diags *diagnostic.Diagnostics
	refs  *collector
	class *Class
}

func classifyClass(tree *tsparse.Tree, cand classCandidate, diags *diagnostic.Diagnostics) *Class {
	builder := &classBuilder{
		tree:  tree,
		diags: diags,
		refs:  newCollector(tree),
		class: &Class{
			Name: tree.Text(tsparse.Field(cand.class, "name")),
			Line: tsparse.Line(cand.class),
		},
	}

	for _, node := range cand.decorators {
		builder.classDecorator(parseDecorator(tree, node))
	}

	var pending []Decorator

	for _, node := range tsparse.NamedChildren(tsparse.Field(cand.class, "body")) {
		switch node.Type() {
		case "decorator":
			pending = append(pending, parseDecorator(tree, node))

			continue
		case "comment":
			continue
		}

		builder.member(node, pending)
		pending = nil
	}

	builder.class.Emits = append(builder.class.Emits, builder.refs.emits...)

	return builder.class
}

func (b *classBuilder) classDecorator(dec Decorator) {
	if dec.Kind != DecoratorComponent {
		b.diags.AddInfo(diagnostic.CodeUnknownDecorator,
			"class decorator @"+dec.Name+" ignored"+suggestDecorator(dec.Name), b.class.Name, dec.Line)

		return
	}

	arg, ok := dec.Arg(0)
	if !ok || !arg.IsObject {
		return
	}

	for _, entry := range arg.Entries {
		switch {
		case entry.Key == "props" && entry.Nested != nil:
			b.optionProps(*entry.Nested)
		case entry.Key == "emits" && entry.Nested != nil && !entry.Nested.IsObject:
			for _, event := range entry.Nested.Elements {
				b.refs.addEmit(event)
			}
		default:
			b.class.Options = append(b.class.Options, entry)
		}
	}
}

func (b *classBuilder) optionProps(arg Arg) {
	if arg.IsObject {
		for _, entry := range arg.Entries {
			if entry.Key != "" {
				b.class.OptionProps = append(b.class.OptionProps, entry)
			}
		}

		return
	}

	for _, name := range arg.Elements {
		if textutil.IsIdentifier(name) {
			b.class.OptionProps = append(b.class.OptionProps, Entry{Key: name, Raw: name})
		}
	}
}

func (b *classBuilder) member(node sitter.Node, decorators []Decorator) {
	for _, child := range tsparse.NamedChildren(node) {
		if child.Type() == "decorator" {
			decorators = append(decorators, parseDecorator(b.tree, child))
		}
	}

	start, _ := tsparse.Span(node)
	indent := lineIndent(b.tree.Source, start)

	switch node.Type() {
	case "method_definition":
		b.method(node, decorators, indent)
	case "public_field_definition", "field_definition":
		b.field(node, decorators, indent)
	default:
		b.unsupported(node, indent, "member kind "+node.Type()+" is not convertible")
	}
}

func (b *classBuilder) unsupported(node sitter.Node, indent int, reason string) {
	name := b.tree.Text(tsparse.Field(node, "name"))

	b.diags.AddWarning(diagnostic.CodeUnsupportedMember, reason+"; kept as a comment", name, tsparse.Line(node))

	b.class.Passthrough = append(b.class.Passthrough, Member{
		Kind:        KindPassthrough,
		Name:        name,
		Line:        tsparse.Line(node),
		Raw:         Snippet{Text: b.tree.Text(node), Indent: indent},
		Unsupported: true,
	})
}

// maxSuggestDistance bounds how far a misspelt decorator may be from a known
// name before no suggestion is offered.
const maxSuggestDistance = 2

// suggestDecorator returns a "did you mean" hint for near misses of the
// supported decorators.
func suggestDecorator(name string) string {
	if match, ok := levenshtein.Closest(name, knownDecorators, maxSuggestDistance); ok {
		return "; did you mean @" + match + "?"
	}

	return ""
}

func (b *classBuilder) ignoreDecorators(decorators []Decorator, member string) {
	for _, dec := range decorators {
		if dec.Kind == DecoratorUnknown {
			b.diags.AddInfo(diagnostic.CodeUnknownDecorator,
				"decorator @"+dec.Name+" ignored"+suggestDecorator(dec.Name), member, dec.Line)
		}
	}
}

func (b *classBuilder) method(node sitter.Node, decorators []Decorator, indent int) {
	name := b.tree.Text(tsparse.Field(node, "name"))

	if tsparse.HasToken(node, "static") {
		b.unsupported(node, indent, "static method")

		return
	}

	if !textutil.IsIdentifier(name) {
		b.unsupported(node, indent, "computed or quoted member name")

		return
	}

	b.ignoreDecorators(decorators, name)

	member := Member{
		Name:       name,
		Line:       tsparse.Line(node),
		Decorators: decorators,
		Type:       annotationText(b.tree, tsparse.Field(node, "return_type")),
		TypeParams: b.tree.Text(tsparse.Field(node, "type_parameters")),
		Async:      tsparse.HasToken(node, "async"),
		Generator:  tsparse.HasToken(node, "*"),
		Body:       b.refs.snippet(tsparse.Field(node, "body"), indent),
		Raw:        Snippet{Text: b.tree.Text(node), Indent: indent},
	}
	member.Params, member.ParamNames = b.parameters(tsparse.Field(node, "parameters"))

	for _, stmt := range tsparse.NamedChildren(tsparse.Field(node, "body")) {
		if returnsValue(stmt) {
			member.ReturnsValue = true

			break
		}
	}

	switch {
	case tsparse.HasToken(node, "get"):
		member.Kind = KindGetter
		b.class.Getters = append(b.class.Getters, member)

		return
	case tsparse.HasToken(node, "set"):
		member.Kind = KindSetter
		b.class.Setters = append(b.class.Setters, member)

		return
	case passthroughMethods[name]:
		member.Kind = KindPassthrough
		b.class.Passthrough = append(b.class.Passthrough, member)

		return
	}

	member.Kind = KindMethod
	member.Lifecycle = lifecycleHooks[name]

	for _, dec := range decorators {
		switch dec.Kind {
		case DecoratorWatch:
			member.Watches = append(member.Watches, watchOf(dec))
		case DecoratorEmit:
			member.EmitEvent = textutil.Kebab(name)
			if arg, ok := dec.Arg(0); ok && arg.IsString && arg.Text != "" {
				member.EmitEvent = arg.Text
			}

			b.refs.addEmit(member.EmitEvent)
		case DecoratorProp, DecoratorComponent, DecoratorUnknown:
		}
	}

	switch {
	case len(member.Watches) > 0:
		b.class.Watchers = append(b.class.Watchers, member)
	case member.Lifecycle:
		b.class.Lifecycle = append(b.class.Lifecycle, member)
	default:
		b.class.Methods = append(b.class.Methods, member)
	}
}

func watchOf(dec Decorator) Watch {
	watch := Watch{Line: dec.Line}

	if target, ok := dec.Arg(0); ok {
		watch.Target = target.Text
	}

	if options, ok := dec.Arg(1); ok {
		watch.Options = options.Raw
	}

	return watch
}

func (b *classBuilder) field(node sitter.Node, decorators []Decorator, indent int) {
	nameNode := tsparse.Field(node, "name")
	if nameNode.IsNull() {
		nameNode = tsparse.Field(node, "property")
	}

	name := b.tree.Text(nameNode)

	if tsparse.HasToken(node, "static") {
		b.unsupported(node, indent, "static field")

		return
	}

	if !textutil.IsIdentifier(name) {
		b.unsupported(node, indent, "computed or quoted member name")

		return
	}

	member := Member{
		Name:       name,
		Line:       tsparse.Line(node),
		Decorators: decorators,
		Type:       annotationText(b.tree, tsparse.Field(node, "type")),
		Init:       b.refs.snippet(tsparse.Field(node, "value"), indent),
		Raw:        Snippet{Text: b.tree.Text(node), Indent: indent},
	}

	if prop, ok := findDecorator(decorators, DecoratorProp); ok {
		member.Kind = KindProperty

		if arg, hasArg := prop.Arg(0); hasArg {
			member.PropArg = &arg
		}

		b.ignoreDecorators(decorators, name)
		b.class.Props = append(b.class.Props, member)

		return
	}

	if tsparse.HasToken(node, "declare") || (strings.HasPrefix(name, "$") && member.Init.Empty()) {
		member.Kind = KindPassthrough
		member.Omitted = true

		b.diags.AddInfo(diagnostic.CodeUnsupportedMember, "type-only declaration omitted", name, member.Line)
		b.class.Passthrough = append(b.class.Passthrough, member)

		return
	}

	b.ignoreDecorators(decorators, name)

	member.Kind = KindState
	b.class.State = append(b.class.State, member)
}

func findDecorator(decorators []Decorator, kind DecoratorKind) (Decorator, bool) {
	for _, dec := range decorators {
		if dec.Kind == kind {
			return dec, true
		}
	}

	return Decorator{}, false
}

// annotationText strips the leading colon of a type annotation node.
func annotationText(tree *tsparse.Tree, node sitter.Node) string {
	text := strings.TrimSpace(tree.Text(node))

	return strings.TrimSpace(strings.TrimPrefix(text, ":"))
}

// parameters returns the parameter list text and the plain identifiers it binds.
func (b *classBuilder) parameters(node sitter.Node) (string, []string) {
	if node.IsNull() {
		return "", nil
	}

	text := b.tree.Text(node)
	text = strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")

	var names []string

	for _, param := range tsparse.NamedChildren(node) {
		if name := paramName(b.tree, param); name != "" {
			names = append(names, name)
		}
	}

	return text, names
}

func paramName(tree *tsparse.Tree, param sitter.Node) string {
	switch param.Type() {
	case "identifier":
		return tree.Text(param)
	case "required_parameter", "optional_parameter":
		return paramName(tree, tsparse.Field(param, "pattern"))
	case "assignment_pattern":
		return paramName(tree, tsparse.Field(param, "left"))
	case "rest_pattern":
		for _, inner := range tsparse.NamedChildren(param) {
			if inner.Type() == "identifier" {
				return "..." + tree.Text(inner)
			}
		}
	}

	return ""
}
