package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/vueconv/pkg/classify"
	"github.com/Sumatoshi-tech/vueconv/pkg/diagnostic"
	"github.com/Sumatoshi-tech/vueconv/pkg/tsparse"
)

// WatchInfo pairs a watch handler with one of its targets.
type WatchInfo struct {
	Handler string `json:"handler"`
	Target  string `json:"target"`
}

// Inspection lists the members of a component class by bucket.
type Inspection struct {
	Language    tsparse.Language       `json:"language"`
	Class       string                 `json:"class,omitempty"`
	Line        int                    `json:"line,omitempty"`
	Props       []string               `json:"props,omitempty"`
	State       []string               `json:"state,omitempty"`
	Getters     []string               `json:"getters,omitempty"`
	Setters     []string               `json:"setters,omitempty"`
	Methods     []string               `json:"methods,omitempty"`
	Watchers    []WatchInfo            `json:"watchers,omitempty"`
	Lifecycle   []string               `json:"lifecycle,omitempty"`
	Passthrough []string               `json:"passthrough,omitempty"`
	Emits       []string               `json:"emits,omitempty"`
	Diagnostics diagnostic.Diagnostics `json:"diagnostics"`
}

// Inspect classifies the component class of src without converting it.
func (c *Converter) Inspect(ctx context.Context, filename string, src []byte) (*Inspection, error) {
	ctx, span := c.tracer.Start(ctx, SpanInspect)
	defer span.End()

	lang := c.opts.Language
	if lang == "" {
		detected, err := tsparse.DetectLanguage(filename, src)
		if err != nil {
			return nil, fmt.Errorf("detect language: %w", err)
		}

		lang = detected
	}

	out := &Inspection{Language: lang}
	script := src
	scriptLang := lang
	offset := 0

	if lang == tsparse.LangVue {
		block, err := c.parser.ExtractScript(ctx, src)
		if errors.Is(err, tsparse.ErrNoScriptBlock) {
			out.Diagnostics.AddInfo(diagnostic.CodeNoClass, "component has no script block", "", 0)

			return out, nil
		}

		if err != nil {
			return nil, err
		}

		script = block.Content(src)
		scriptLang = block.Lang
		offset = lineOffset(src, block.Start)
	}

	tree, err := c.parser.Parse(ctx, scriptLang, script)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	unit := classify.Analyze(tree, &out.Diagnostics)
	shiftLines(out.Diagnostics.Items, offset)

	if unit.Class == nil {
		return out, nil
	}

	class := unit.Class
	out.Class = class.Name
	out.Line = class.Line + offset
	out.Emits = class.Emits

	for _, entry := range class.OptionProps {
		out.Props = append(out.Props, entry.Key)
	}

	out.Props = append(out.Props, names(class.Props)...)
	out.State = names(class.State)
	out.Getters = names(class.Getters)
	out.Setters = names(class.Setters)
	out.Methods = names(class.Methods)
	out.Lifecycle = names(class.Lifecycle)
	out.Passthrough = names(class.Passthrough)

	for _, m := range class.Watchers {
		for _, w := range m.Watches {
			out.Watchers = append(out.Watchers, WatchInfo{Handler: m.Name, Target: w.Target})
		}
	}

	return out, nil
}

func names(members []classify.Member) []string {
	if len(members) == 0 {
		return nil
	}

	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Name)
	}

	return out
}

func lineOffset(src []byte, pos int) int {
	n := 0

	for _, b := range src[:pos] {
		if b == '\n' {
			n++
		}
	}

	return n
}

func shiftLines(items []diagnostic.Diagnostic, offset int) {
	if offset == 0 {
		return
	}

	for i := range items {
		if items[i].Line > 0 {
			items[i].Line += offset
		}
	}
}
