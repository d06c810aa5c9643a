// Package proptype maps TypeScript type annotations to Vue runtime prop
// validators such as `String` or `[String, Array] as PropType<string | string[]>`.
package proptype

import (
	"regexp"
	"strings"
)

// Runtime constructor names understood by Vue prop validation.
const (
	RuntimeString   = "String"
	RuntimeNumber   = "Number"
	RuntimeBoolean  = "Boolean"
	RuntimeDate     = "Date"
	RuntimeSymbol   = "Symbol"
	RuntimeFunction = "Function"
	RuntimeArray    = "Array"
	RuntimeObject   = "Object"
)

// WrapperName is the compile-time generic used to carry the original annotation.
const WrapperName = "PropType"

// untypedExpression is rendered when the prop has no annotation at all.
const untypedExpression = "null"

var (
	functionShape = regexp.MustCompile(`\(.*\)\s*=>\s*.+`)
	genericArray  = regexp.MustCompile(`^Array<.+>$`)
)

// bareRuntimes can be emitted without the generic wrapper.
var bareRuntimes = map[string]bool{
	RuntimeString:  true,
	RuntimeNumber:  true,
	RuntimeBoolean: true,
	RuntimeDate:    true,
	RuntimeSymbol:  true,
}

// Descriptor is the runtime validator derived from one annotation.
type Descriptor struct {
	// Runtime lists the de-duplicated runtime constructors in first-seen order.
	Runtime []string `json:"runtime,omitempty"`

	// Annotation is the original annotation text, byte for byte.
	Annotation string `json:"annotation,omitempty"`

	// Wrapped reports whether the expression carries `as PropType<...>`.
	Wrapped bool `json:"wrapped"`

	// Untyped is set when no annotation was supplied.
	Untyped bool `json:"untyped,omitempty"`
}

// Untyped returns the sentinel descriptor for a missing annotation.
func Untyped() Descriptor {
	return Descriptor{Untyped: true}
}

// Expression renders the descriptor as a validator expression.
func (d Descriptor) Expression() string {
	if d.Untyped {
		return untypedExpression
	}

	var base string

	switch len(d.Runtime) {
	case 0:
		base = RuntimeObject
	case 1:
		base = d.Runtime[0]
	default:
		base = "[" + strings.Join(d.Runtime, ", ") + "]"
	}

	if !d.Wrapped {
		return base
	}

	return base + " as " + WrapperName + "<" + d.Annotation + ">"
}

// Use returns the import name the expression depends on, or "".
func (d Descriptor) Use() string {
	if d.Wrapped {
		return WrapperName
	}

	return ""
}

// Map converts a type annotation into a validator descriptor.
// An empty annotation yields the untyped sentinel.
func Map(annotation string) Descriptor {
	if strings.TrimSpace(annotation) == "" {
		return Untyped()
	}

	branches, union := splitUnion(annotation)
	if !union {
		return mapSingle(annotation, branches[0])
	}

	runtime := make([]string, 0, len(branches))
	seen := make(map[string]bool, len(branches))

	for _, branch := range branches {
		name, ok := runtimeFor(branch)
		if !ok || seen[name] {
			continue
		}

		seen[name] = true
		runtime = append(runtime, name)
	}

	return Descriptor{Runtime: runtime, Annotation: annotation, Wrapped: true}
}

func mapSingle(annotation, branch string) Descriptor {
	name, ok := runtimeFor(branch)
	if !ok {
		return Descriptor{Annotation: annotation, Wrapped: true}
	}

	return Descriptor{
		Runtime:    []string{name},
		Annotation: annotation,
		Wrapped:    !bareRuntimes[name],
	}
}

// runtimeFor maps one union branch. The boolean is false for null and undefined.
func runtimeFor(branch string) (string, bool) {
	trimmed := strings.TrimSpace(branch)

	switch {
	case trimmed == "null" || trimmed == "undefined":
		return "", false
	case trimmed == "string":
		return RuntimeString, true
	case trimmed == "number":
		return RuntimeNumber, true
	case trimmed == "boolean":
		return RuntimeBoolean, true
	case trimmed == RuntimeDate:
		return RuntimeDate, true
	case trimmed == RuntimeSymbol:
		return RuntimeSymbol, true
	case trimmed == RuntimeFunction || functionShape.MatchString(trimmed):
		return RuntimeFunction, true
	case strings.HasSuffix(trimmed, "[]") || genericArray.MatchString(trimmed):
		return RuntimeArray, true
	case isQuotedLiteral(trimmed):
		return RuntimeString, true
	default:
		return RuntimeObject, true
	}
}

func isQuotedLiteral(s string) bool {
	const minQuoted = 3

	if len(s) < minQuoted {
		return false
	}

	quote := s[0]
	if quote != '\'' && quote != '"' && quote != '`' {
		return false
	}

	return s[len(s)-1] == quote
}
