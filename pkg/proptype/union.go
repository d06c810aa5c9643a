package proptype

import "strings"

// SplitUnion splits an annotation on `|` at nesting depth zero and trims each
// branch. Bars inside parentheses, brackets, braces, generics, or string
// literals do not split. Empty branches (a leading `|`) are dropped.
func SplitUnion(annotation string) []string {
	branches, _ := splitUnion(annotation)

	return branches
}

// splitUnion also reports whether a top-level bar was seen, so `| 'a'` is
// still a union.
func splitUnion(annotation string) ([]string, bool) {
	var (
		union    bool
		branches []string
		depth    int
		quote    byte
		start    int
	)

	for idx := 0; idx < len(annotation); idx++ {
		ch := annotation[idx]

		if quote != 0 {
			switch ch {
			case '\\':
				idx++
			case quote:
				quote = 0
			}

			continue
		}

		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}':
			depth--
		case '>':
			// The arrow in a function type is not a closing generic.
			if idx > 0 && annotation[idx-1] == '=' {
				continue
			}

			depth--
		case '|':
			if depth == 0 {
				union = true
				branches = appendBranch(branches, annotation[start:idx])
				start = idx + 1
			}
		}
	}

	return appendBranch(branches, annotation[start:]), union
}

func appendBranch(branches []string, raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return branches
	}

	return append(branches, trimmed)
}
