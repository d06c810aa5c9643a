package synth

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/vueconv/pkg/classify"
	"github.com/Sumatoshi-tech/vueconv/pkg/diagnostic"
	"github.com/Sumatoshi-tech/vueconv/pkg/textutil"
)

const (
	defaultContext = "ctx"
	propsArg       = "props"
	blockIndent    = "  "
)

// Options tunes binding synthesis.
type Options struct {
	// RewriteThis rewrites `this.x` references to setup-scope names.
	RewriteThis bool
	// Strict turns an unmatched setter into ErrUnresolvedSetter.
	Strict bool
	// Context is the name of the second setup argument. Defaults to "ctx".
	Context string
	// ScriptSetup targets `<script setup>`: props are read as `props.x`,
	// events go through `emit`, and no toRefs destructuring is emitted.
	ScriptSetup bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{RewriteThis: true, Context: defaultContext}
}

func (o Options) contextName() string {
	if o.Context == "" {
		return defaultContext
	}

	return o.Context
}

// lifecycleHooks maps class hooks to their registration function. Hooks
// missing here run immediately inside setup.
var lifecycleHooks = map[string]string{
	"beforeMount":     "onBeforeMount",
	"mounted":         "onMounted",
	"beforeUpdate":    "onBeforeUpdate",
	"updated":         "onUpdated",
	"beforeDestroy":   "onBeforeUnmount",
	"beforeUnmount":   "onBeforeUnmount",
	"destroyed":       "onUnmounted",
	"unmounted":       "onUnmounted",
	"errorCaptured":   "onErrorCaptured",
	"renderTracked":   "onRenderTracked",
	"renderTriggered": "onRenderTriggered",
	"activated":       "onActivated",
	"deactivated":     "onDeactivated",
	"serverPrefetch":  "onServerPrefetch",
}

// HookFor returns the registration function of a lifecycle hook.
func HookFor(name string) (string, bool) {
	hook, ok := lifecycleHooks[name]

	return hook, ok
}

type synthesizer struct {
	class *classify.Class
	opts  Options
	diags *diagnostic.Diagnostics
	scope *scope
	out   *Result
}

// Synthesize converts a classified class into ordered bindings. Recoverable
// findings are appended to diags.
func Synthesize(class *classify.Class, opts Options, diags *diagnostic.Diagnostics) (*Result, error) {
	s := &synthesizer{
		class: class,
		opts:  opts,
		diags: diags,
		scope: newScope(class, opts),
		out:   &Result{Props: NewPropSchema(), Emits: class.Emits},
	}

	for _, opt := range class.Options {
		s.out.Options = append(s.out.Options, Option{Key: opt.Key, Raw: opt.Raw})
	}

	s.props()
	s.state()

	if err := s.derived(); err != nil {
		return nil, err
	}

	s.methods()
	s.watchers()
	s.lifecycle()
	s.passthrough()
	s.setupHelpers()

	sortBindings(s.out.Bindings)

	return s.out, nil
}

func (s *synthesizer) add(b Binding) {
	s.out.Bindings = append(s.out.Bindings, b)
}

func (s *synthesizer) props() {
	for _, opt := range s.class.OptionProps {
		s.out.Props.Add(optionProp(opt))
	}

	for _, member := range s.class.Props {
		if !s.out.Props.Add(decoratedProp(member)) {
			s.diags.AddWarning(diagnostic.CodeUnsupportedMember,
				"property declared twice; first declaration kept", member.Name, member.Line)
		}
	}

	names := s.out.Props.Names()
	if len(names) == 0 || s.opts.ScriptSetup {
		return
	}

	s.add(Binding{
		Phase:   PhaseProps,
		Kind:    KindGroupDestructure,
		Name:    propsArg,
		Code:    fmt.Sprintf("const { %s } = toRefs(%s);", strings.Join(names, ", "), propsArg),
		Exports: names,
		Uses:    []string{"toRefs"},
	})
}

// setupHelpers declares the `<script setup>` helpers the bodies reference.
// defineEmits is rendered by the assembler, so emit needs no binding.
func (s *synthesizer) setupHelpers() {
	composables := map[string]string{"attrs": "useAttrs", "slots": "useSlots"}

	for _, helper := range s.scope.helpers {
		composable, ok := composables[helper]
		if !ok {
			continue
		}

		s.add(Binding{
			Phase: PhaseProps,
			Kind:  KindGroupDestructure,
			Name:  helper,
			Code:  fmt.Sprintf("const %s = %s();", helper, composable),
			Uses:  []string{composable},
		})
	}
}

func (s *synthesizer) state() {
	for _, member := range s.class.State {
		typeArg := ""
		if member.Type != "" {
			typeArg = "<" + member.Type + ">"
		}

		s.add(Binding{
			Phase:   PhaseState,
			Kind:    KindState,
			Name:    member.Name,
			Code:    fmt.Sprintf("const %s = ref%s(%s);", member.Name, typeArg, s.scope.render(member.Init)),
			Exports: []string{member.Name},
			Uses:    []string{"ref"},
			Line:    member.Line,
		})
	}
}

func (s *synthesizer) derived() error {
	setters := make(map[string]classify.Member, len(s.class.Setters))
	for _, setter := range s.class.Setters {
		setters[setter.Name] = setter
	}

	paired := make(map[string]bool, len(setters))

	for _, getter := range s.class.Getters {
		body := s.block(getter.Body)
		returnType := typeSuffix(getter.Type)

		var code string

		if setter, ok := setters[getter.Name]; ok {
			paired[getter.Name] = true
			code = fmt.Sprintf("const %s = computed({\n%sget()%s %s,\n%sset(%s) %s,\n});",
				getter.Name,
				blockIndent, returnType, textutil.IndentRest(body, blockIndent),
				blockIndent, setter.Params, textutil.IndentRest(s.block(setter.Body), blockIndent))
		} else {
			code = fmt.Sprintf("const %s = computed(()%s => %s);", getter.Name, returnType, body)
		}

		s.add(Binding{
			Phase:   PhaseDerived,
			Kind:    KindDerived,
			Name:    getter.Name,
			Code:    code,
			Exports: []string{getter.Name},
			Uses:    []string{"computed"},
			Line:    getter.Line,
		})
	}

	for _, setter := range s.class.Setters {
		if paired[setter.Name] {
			continue
		}

		if s.opts.Strict {
			return fmt.Errorf("%w: %s (line %d)", ErrUnresolvedSetter, setter.Name, setter.Line)
		}

		s.diags.AddWarning(diagnostic.CodeUnresolvedSetter,
			"setter has no matching getter and was dropped", setter.Name, setter.Line)
	}

	return nil
}

func (s *synthesizer) methods() {
	for _, member := range s.class.Methods {
		s.add(Binding{
			Phase:   PhaseFunction,
			Kind:    KindFunction,
			Name:    member.Name,
			Code:    s.function(member),
			Exports: []string{member.Name},
			Line:    member.Line,
		})
	}
}

// watchers emits one registration per target. The handler declaration
// travels with the first registration that uses it.
func (s *synthesizer) watchers() {
	targets := make(map[string]int)
	decls := make(map[int]string)
	declared := make(map[string]bool)

	declare := func(member classify.Member) (string, []string) {
		if declared[member.Name] {
			return "", nil
		}

		declared[member.Name] = true

		return s.function(member) + "\n", []string{member.Name}
	}

	for _, member := range s.class.Watchers {
		for _, w := range member.Watches {
			if w.Target == "" {
				continue
			}

			args := []string{s.scope.watchSource(w.Target), member.Name}
			if w.Options != "" {
				args = append(args, w.Options)
			}

			call := "watch(" + strings.Join(args, ", ") + ");"

			if idx, dup := targets[w.Target]; dup {
				prev := &s.out.Bindings[idx]

				s.diags.AddWarning(diagnostic.CodeDuplicateWatch,
					fmt.Sprintf("target %q already watched by %s; registration replaced", w.Target, prev.Name),
					member.Name, w.Line)

				decl, exports := declare(member)
				decls[idx] += decl
				prev.Code = decls[idx] + call
				prev.Exports = append(prev.Exports, exports...)
				prev.Name = member.Name
				prev.Line = w.Line

				continue
			}

			decl, exports := declare(member)
			targets[w.Target] = len(s.out.Bindings)
			decls[len(s.out.Bindings)] = decl

			s.add(Binding{
				Phase:   PhaseWatch,
				Kind:    KindWatch,
				Name:    member.Name,
				Code:    decl + call,
				Exports: exports,
				Uses:    []string{"watch"},
				Line:    w.Line,
			})
		}
	}

	for _, member := range s.class.Watchers {
		if declared[member.Name] {
			continue
		}

		s.diags.AddInfo(diagnostic.CodeOrphanHandler,
			"watch decorator without a target; handler kept as a function", member.Name, member.Line)

		s.add(Binding{
			Phase:   PhaseFunction,
			Kind:    KindFunction,
			Name:    member.Name,
			Code:    s.function(member),
			Exports: []string{member.Name},
			Line:    member.Line,
		})
	}
}

func (s *synthesizer) lifecycle() {
	for _, member := range s.class.Lifecycle {
		async := ""
		if member.Async {
			async = "async "
		}

		fn := fmt.Sprintf("%s(%s)%s => %s", async, member.Params, typeSuffix(member.Type), s.block(member.Body))

		binding := Binding{
			Phase: PhaseLifecycle,
			Kind:  KindLifecycle,
			Name:  member.Name,
			Line:  member.Line,
		}

		if hook, ok := HookFor(member.Name); ok {
			binding.Code = hook + "(" + fn + ");"
			binding.Uses = []string{hook}
		} else {
			binding.Code = "(" + fn + ")();"
		}

		s.add(binding)
	}
}

func (s *synthesizer) passthrough() {
	for _, member := range s.class.Passthrough {
		switch {
		case member.Omitted:
			continue
		case member.Unsupported:
			text := textutil.Dedent(member.Raw.Text, member.Raw.Indent)
			s.out.Passthrough = append(s.out.Passthrough, Passthrough{
				Name:    member.Name,
				Code:    "// " + strings.ReplaceAll(text, "\n", "\n// "),
				Comment: true,
			})
		default:
			s.out.Passthrough = append(s.out.Passthrough, Passthrough{
				Name: member.Name,
				Code: textutil.Dedent(member.Raw.Text, member.Raw.Indent),
			})
		}
	}
}

// function renders a method as a function declaration. @Emit methods run
// their body and then emit the event with the returned value and arguments.
func (s *synthesizer) function(member classify.Member) string {
	async := ""
	if member.Async {
		async = "async "
	}

	star := ""
	if member.Generator {
		star = "*"
	}

	head := fmt.Sprintf("%sfunction%s %s%s(%s)%s", async, star, member.Name, member.TypeParams, member.Params,
		typeSuffix(member.Type))

	if member.EmitEvent == "" {
		return head + " " + s.block(member.Body)
	}

	return head + " " + s.emitBody(member)
}

func (s *synthesizer) emitBody(member classify.Member) string {
	async := ""
	await := ""

	if member.Async {
		async = "async "
		await = "await "
	}

	inner := fmt.Sprintf("(%s() => %s)()", async, s.block(member.Body))

	args := []string{quote(member.EmitEvent)}

	var lines []string

	if member.ReturnsValue {
		lines = append(lines, "const result = "+await+inner+";")
		args = append(args, "result")
	} else {
		lines = append(lines, await+inner+";")
	}

	args = append(args, member.ParamNames...)
	lines = append(lines, s.scope.resolve("$emit")+"("+strings.Join(args, ", ")+");")

	return "{\n" + textutil.Indent(strings.Join(lines, "\n"), blockIndent) + "\n}"
}

// block renders a body snippet, defaulting to an empty block.
func (s *synthesizer) block(body classify.Snippet) string {
	if body.Empty() {
		return "{}"
	}

	return s.scope.render(body)
}

func typeSuffix(t string) string {
	if t == "" {
		return ""
	}

	return ": " + t
}
