// Package synth turns classified class members into setup-scope bindings:
// ref state cells, computed values, functions, watch registrations and
// lifecycle hook calls, plus the property schema of the component.
package synth

import (
	"errors"
	"slices"
)

// ErrUnresolvedSetter is returned in strict mode for a setter with no getter.
var ErrUnresolvedSetter = errors.New("setter has no matching getter")

// Phase fixes where a binding appears inside setup. Later phases may
// reference names bound by earlier ones.
type Phase int

// Binding phases, in emission order.
const (
	PhaseProps Phase = iota
	PhaseState
	PhaseDerived
	PhaseFunction
	PhaseWatch
	PhaseLifecycle
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseProps:
		return "props"
	case PhaseState:
		return "state"
	case PhaseDerived:
		return "derived"
	case PhaseFunction:
		return "function"
	case PhaseWatch:
		return "watch"
	case PhaseLifecycle:
		return "lifecycle"
	default:
		return "unknown"
	}
}

// Binding kinds.
const (
	KindGroupDestructure = "group-destructure"
	KindState            = "state"
	KindDerived          = "derived"
	KindFunction         = "function"
	KindWatch            = "watch"
	KindLifecycle        = "lifecycle"
)

// Binding is one declaration emitted into setup.
type Binding struct {
	Phase Phase  `json:"-"`
	Kind  string `json:"kind"`
	// Name is the member the binding was built from.
	Name string `json:"name"`
	Code string `json:"code"`
	// Exports are the names returned from setup.
	Exports []string `json:"exports,omitempty"`
	// Uses are the framework functions the code calls.
	Uses []string `json:"uses,omitempty"`
	Line int      `json:"line,omitempty"`
}

// Passthrough is a member copied into the component options.
type Passthrough struct {
	Name string
	Code string
	// Comment marks members that could not be converted and are kept as a
	// line comment.
	Comment bool
}

// Option is one passthrough entry of the @Component options object.
type Option struct {
	Key string
	Raw string
}

// Result is the synthesized form of one class.
type Result struct {
	Bindings    []Binding
	Props       *PropSchema
	Emits       []string
	Options     []Option
	Passthrough []Passthrough
}

// Exports returns every exported name in binding order.
func (r *Result) Exports() []string {
	var names []string

	for _, b := range r.Bindings {
		names = append(names, b.Exports...)
	}

	return names
}

// Uses returns the framework functions used by bindings and the property
// schema, deduplicated in first-use order.
func (r *Result) Uses() []string {
	var uses []string

	add := func(name string) {
		if name != "" && !slices.Contains(uses, name) {
			uses = append(uses, name)
		}
	}

	for _, b := range r.Bindings {
		for _, use := range b.Uses {
			add(use)
		}
	}

	if r.Props != nil {
		for _, use := range r.Props.Uses() {
			add(use)
		}
	}

	return uses
}

func sortBindings(bindings []Binding) {
	slices.SortStableFunc(bindings, func(a, b Binding) int {
		return int(a.Phase) - int(b.Phase)
	})
}
