// Package classify walks a class-style Vue component and sorts every class
// member into exactly one role: state, computed getter or setter, method,
// lifecycle hook, watcher, prop, or passthrough.
package classify

// Kind is the syntactic role of a class member.
type Kind int

// Member kinds.
const (
	KindState Kind = iota
	KindGetter
	KindSetter
	KindMethod
	KindProperty
	KindPassthrough
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindGetter:
		return "getter"
	case KindSetter:
		return "setter"
	case KindMethod:
		return "method"
	case KindProperty:
		return "property"
	case KindPassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// DecoratorKind enumerates the recognized decorator vocabulary.
type DecoratorKind int

// Recognized decorators.
const (
	DecoratorUnknown DecoratorKind = iota
	DecoratorProp
	DecoratorWatch
	DecoratorEmit
	DecoratorComponent
)

// String returns the decorator name as written in source.
func (k DecoratorKind) String() string {
	switch k {
	case DecoratorProp:
		return "Prop"
	case DecoratorWatch:
		return "Watch"
	case DecoratorEmit:
		return "Emit"
	case DecoratorComponent:
		return "Component"
	default:
		return "unknown"
	}
}

// knownDecorators lists the decorator names ParseDecoratorKind recognizes.
var knownDecorators = []string{"Prop", "Watch", "Emit", "Component", "Options"}

// ParseDecoratorKind maps a decorator callee name to its kind.
func ParseDecoratorKind(name string) DecoratorKind {
	switch name {
	case "Prop":
		return DecoratorProp
	case "Watch":
		return DecoratorWatch
	case "Emit":
		return DecoratorEmit
	case "Component", "Options":
		return DecoratorComponent
	default:
		return DecoratorUnknown
	}
}

// Entry is one element of an object literal. Key is empty for spreads.
type Entry struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
	Raw   string `json:"raw"`

	// Nested is the parsed value of object and array literal values.
	Nested *Arg `json:"-"`
}

// Arg is one decorator argument.
type Arg struct {
	// Raw is the argument source text.
	Raw string
	// Text is the unquoted value of a string literal, otherwise Raw.
	Text     string
	IsString bool
	IsObject bool
	// Entries holds object literal entries when IsObject.
	Entries []Entry
	// Elements holds array literal elements; string elements are unquoted.
	Elements []string
}

// Decorator is a parsed `@Name(args)` annotation.
type Decorator struct {
	Kind DecoratorKind
	Name string
	Args []Arg
	Line int
}

// Arg returns the idx-th argument, if present.
func (d Decorator) Arg(idx int) (Arg, bool) {
	if idx < 0 || idx >= len(d.Args) {
		return Arg{}, false
	}

	return d.Args[idx], true
}

// ThisRef marks a `this.name` expression. Offsets are relative to the
// owning snippet.
type ThisRef struct {
	Start int
	End   int
	Name  string
}

// Snippet is member source text with the `this` references it contains.
type Snippet struct {
	Text string
	Refs []ThisRef
	// Indent is the leading whitespace width of the member's first line.
	Indent int
}

// Empty reports whether the snippet has no text.
func (s Snippet) Empty() bool {
	return s.Text == ""
}

// Watch is one `@Watch(target, options)` registration.
type Watch struct {
	Target  string
	Options string
	Line    int
}

// Member is one classified class member. Kind selects which fields apply.
type Member struct {
	Kind Kind
	Name string
	Line int

	// Type is the declared field type or method return type, without the colon.
	Type string
	// Init is the field initializer.
	Init Snippet

	TypeParams string
	// Params is the parameter list without parentheses.
	Params     string
	ParamNames []string
	Body       Snippet
	Async      bool
	Generator  bool

	// ReturnsValue marks bodies with a `return expr` outside nested functions.
	ReturnsValue bool

	// Lifecycle marks methods named after a lifecycle hook.
	Lifecycle bool
	Watches   []Watch
	// EmitEvent is set for methods decorated with @Emit.
	EmitEvent string

	// PropArg is the first @Prop argument.
	PropArg *Arg

	Decorators []Decorator

	// Raw is the whole member, used for passthrough output.
	Raw Snippet
	// Unsupported marks passthrough members kept only as comments.
	Unsupported bool
	// Omitted marks type-only declarations that produce no output.
	Omitted bool
}

// Class is the classified component class. Each bucket preserves the
// first-encountered order of its members.
type Class struct {
	Name string
	Line int

	// Options are the entries of the @Component options object other than
	// props and emits.
	Options []Entry
	// OptionProps are properties declared through the `props` option. Array
	// declarations yield entries with an empty Value.
	OptionProps []Entry

	State       []Member
	Getters     []Member
	Setters     []Member
	Methods     []Member
	Lifecycle   []Member
	Watchers    []Member
	Props       []Member
	Passthrough []Member

	// Emits lists events declared by @Emit or passed to `this.$emit("name")`,
	// first-seen order.
	Emits []string
}

// Statement is a top-level statement kept verbatim in the output.
type Statement struct {
	Text string
	Line int
}

// Unit is an analyzed source unit.
type Unit struct {
	// Statements are the top-level statements other than the converted class.
	Statements []Statement
	// Class is nil when the unit declares no class.
	Class *Class
}
