package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines shown around a change.
const diffContext = 3

type diffLine struct {
	op   diffmatchpatch.Operation
	text string
}

// lineDiff compares before and after line by line.
func lineDiff(before, after string) []diffLine {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var out []diffLine

	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for line := range strings.SplitSeq(text, "\n") {
			out = append(out, diffLine{op: d.Type, text: line})
		}
	}

	return out
}

// writeUnifiedDiff renders a unified diff of before and after. Nothing is
// written when they are equal.
func writeUnifiedDiff(w io.Writer, name, before, after string, colored bool) {
	if before == after {
		return
	}

	lines := lineDiff(before, after)

	header := color.New(color.Bold)
	hunkColor := color.New(color.FgCyan)
	del := color.New(color.FgRed)
	add := color.New(color.FgGreen)

	paint := func(c *color.Color, s string) string {
		if !colored {
			return s
		}

		return c.Sprint(s)
	}

	fmt.Fprintln(w, paint(header, "--- a/"+name))
	fmt.Fprintln(w, paint(header, "+++ b/"+name))

	for _, h := range hunks(lines) {
		fmt.Fprintln(w, paint(hunkColor, fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.oldStart, h.oldLines, h.newStart, h.newLines)))

		for _, line := range lines[h.from:h.to] {
			switch line.op {
			case diffmatchpatch.DiffDelete:
				fmt.Fprintln(w, paint(del, "-"+line.text))
			case diffmatchpatch.DiffInsert:
				fmt.Fprintln(w, paint(add, "+"+line.text))
			case diffmatchpatch.DiffEqual:
				fmt.Fprintln(w, " "+line.text)
			}
		}
	}
}

type hunk struct {
	from, to           int
	oldStart, oldLines int
	newStart, newLines int
}

// hunks groups changed lines with up to diffContext lines of context,
// merging groups whose context overlaps.
func hunks(lines []diffLine) []hunk {
	var (
		out     []hunk
		current *hunk
	)

	for i, line := range lines {
		if line.op == diffmatchpatch.DiffEqual {
			continue
		}

		from := max(i-diffContext, 0)
		to := min(i+diffContext+1, len(lines))

		if current != nil && from <= current.to {
			current.to = max(current.to, to)

			continue
		}

		out = append(out, hunk{from: from, to: to})
		current = &out[len(out)-1]
	}

	oldLine, newLine := 1, 1
	next := 0

	for i, line := range lines {
		for next < len(out) && out[next].from == i {
			out[next].oldStart, out[next].newStart = oldLine, newLine
			next++
		}

		for j := range out {
			if i >= out[j].from && i < out[j].to {
				if line.op != diffmatchpatch.DiffInsert {
					out[j].oldLines++
				}

				if line.op != diffmatchpatch.DiffDelete {
					out[j].newLines++
				}
			}
		}

		if line.op != diffmatchpatch.DiffInsert {
			oldLine++
		}

		if line.op != diffmatchpatch.DiffDelete {
			newLine++
		}
	}

	return out
}
