package synth

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/vueconv/pkg/classify"
	"github.com/Sumatoshi-tech/vueconv/pkg/proptype"
)

// PropEntry is one declared component property.
type PropEntry struct {
	Name string `json:"name"`
	// Type is the validator inferred from the declared annotation.
	Type proptype.Descriptor `json:"-"`
	// Options is the rendered options object, e.g. `{ required: true, type: Number }`.
	Options  string `json:"options"`
	Required bool   `json:"required,omitempty"`
	Default  string `json:"default,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// PropSchema maps unique property names to their options, in declaration order.
type PropSchema struct {
	entries []PropEntry
	index   map[string]int
}

// NewPropSchema returns an empty schema.
func NewPropSchema() *PropSchema {
	return &PropSchema{index: make(map[string]int)}
}

// Add appends entry. A name already present is left untouched and Add
// returns false.
func (s *PropSchema) Add(entry PropEntry) bool {
	if _, exists := s.index[entry.Name]; exists {
		return false
	}

	s.index[entry.Name] = len(s.entries)
	s.entries = append(s.entries, entry)

	return true
}

// Get returns the entry for name.
func (s *PropSchema) Get(name string) (PropEntry, bool) {
	idx, ok := s.index[name]
	if !ok {
		return PropEntry{}, false
	}

	return s.entries[idx], true
}

// Len returns the number of properties.
func (s *PropSchema) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in declaration order.
func (s *PropSchema) Entries() []PropEntry {
	return slices.Clone(s.entries)
}

// Names returns the property names in declaration order.
func (s *PropSchema) Names() []string {
	names := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		names = append(names, entry.Name)
	}

	return names
}

// Uses returns the imports the rendered validators need.
func (s *PropSchema) Uses() []string {
	var uses []string

	for _, entry := range s.entries {
		if use := entry.Type.Use(); use != "" && !slices.Contains(uses, use) {
			uses = append(uses, use)
		}
	}

	return uses
}

// decoratedProp builds the schema entry of an @Prop field.
func decoratedProp(member classify.Member) PropEntry {
	entry := PropEntry{Name: member.Name, Line: member.Line, Type: proptype.Untyped()}

	if member.Type != "" {
		entry.Type = proptype.Map(member.Type)
	}

	arg := member.PropArg

	switch {
	case arg == nil, !arg.IsObject && member.Type != "":
		entry.Options = "{ type: " + entry.Type.Expression() + " }"
	case !arg.IsObject:
		// Without an annotation, @Prop(String) and @Prop([String, Number])
		// name the runtime type directly.
		entry.Type = proptype.Descriptor{Runtime: []string{arg.Raw}}
		entry.Options = "{ type: " + arg.Raw + " }"
	case member.Type == "" || hasEntry(arg.Entries, "type"):
		entry.Options = arg.Raw
		entry.Type = proptype.Untyped()
	default:
		raws := make([]string, 0, len(arg.Entries)+1)
		for _, e := range arg.Entries {
			raws = append(raws, e.Raw)
		}

		raws = append(raws, "type: "+entry.Type.Expression())
		entry.Options = "{ " + strings.Join(raws, ", ") + " }"
	}

	if arg != nil && arg.IsObject {
		for _, e := range arg.Entries {
			switch e.Key {
			case "required":
				entry.Required = e.Value == "true"
			case "default":
				entry.Default = e.Value
			}
		}
	}

	return entry
}

// optionProp builds the schema entry of a property declared in the
// @Component props option.
func optionProp(opt classify.Entry) PropEntry {
	entry := PropEntry{Name: opt.Key, Options: opt.Value, Type: proptype.Untyped()}
	if entry.Options == "" {
		entry.Options = proptype.Untyped().Expression()
	}

	if opt.Nested != nil && opt.Nested.IsObject {
		for _, e := range opt.Nested.Entries {
			switch e.Key {
			case "required":
				entry.Required = e.Value == "true"
			case "default":
				entry.Default = e.Value
			}
		}
	}

	return entry
}

func hasEntry(entries []classify.Entry, key string) bool {
	for _, e := range entries {
		if e.Key == key {
			return true
		}
	}

	return false
}
