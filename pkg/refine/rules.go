// Package refine applies project-specific rewrites to converted output:
// instance helpers become composables, their imports are merged into the
// import block and setup-scope preludes are declared once.
package refine

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml rules-schema.json
var assets embed.FS

// ErrInvalidRules reports a rule table that fails schema validation or
// carries a pattern that does not compile.
var ErrInvalidRules = errors.New("invalid refinement rules")

const (
	// FrameworkPath in an import path stands for the framework import source.
	FrameworkPath = "@framework"
	// contextToken in a pattern stands for the setup context name.
	contextToken   = "{ctx}"
	defaultContext = "ctx"
)

// Import is a name a rule needs in scope.
type Import struct {
	Path    string `yaml:"path" json:"path"`
	Name    string `yaml:"name" json:"name"`
	Default bool   `yaml:"default,omitempty" json:"default,omitempty"`
}

// Rule rewrites every match of Pattern. A nil Replacement keeps the match
// and only contributes the prelude and import.
type Rule struct {
	Name        string  `yaml:"name" json:"name"`
	Pattern     string  `yaml:"pattern" json:"pattern"`
	Replacement *string `yaml:"replacement,omitempty" json:"replacement,omitempty"`
	Prelude     string  `yaml:"prelude,omitempty" json:"prelude,omitempty"`
	Import      *Import `yaml:"import,omitempty" json:"import,omitempty"`
}

// RuleSet is an ordered rule table.
type RuleSet struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Names returns the rule names in order.
func (rs *RuleSet) Names() []string {
	names := make([]string, 0, len(rs.Rules))
	for _, rule := range rs.Rules {
		names = append(names, rule.Name)
	}

	return names
}

func (r Rule) compile(context string) (*regexp.Regexp, error) {
	if context == "" {
		context = defaultContext
	}

	re, err := regexp.Compile(strings.ReplaceAll(r.Pattern, contextToken, regexp.QuoteMeta(context)))
	if err != nil {
		return nil, fmt.Errorf("%w: rule %q: %w", ErrInvalidRules, r.Name, err)
	}

	return re, nil
}

// DefaultRules returns the built-in rule table.
func DefaultRules() *RuleSet {
	data, err := assets.ReadFile("rules.yaml")
	if err != nil {
		panic(fmt.Sprintf("read embedded rules: %v", err))
	}

	rules, err := LoadRules(data)
	if err != nil {
		panic(fmt.Sprintf("load embedded rules: %v", err))
	}

	return rules
}

// DefaultRulesYAML returns the built-in rule table as YAML.
func DefaultRulesYAML() []byte {
	data, err := assets.ReadFile("rules.yaml")
	if err != nil {
		panic(fmt.Sprintf("read embedded rules: %v", err))
	}

	return data
}

// LoadRulesFile reads and validates a YAML rule table.
func LoadRulesFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	return LoadRules(data)
}

// LoadRules validates a YAML rule table and compiles its patterns.
func LoadRules(data []byte) (*RuleSet, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var rules RuleSet

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}

	for _, rule := range rules.Rules {
		if _, err := rule.compile(defaultContext); err != nil {
			return nil, err
		}
	}

	return &rules, nil
}

// Validate checks a YAML rule table against the rule schema.
func Validate(data []byte) error {
	var doc any

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}

	schema, err := assets.ReadFile("rules-schema.json")
	if err != nil {
		return fmt.Errorf("read rule schema: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, verr.Field()+": "+verr.Description())
	}

	return fmt.Errorf("%w: %s", ErrInvalidRules, strings.Join(problems, "; "))
}
