// Package levenshtein measures edit distance between identifiers and picks
// the closest known name for "did you mean" hints.
package levenshtein

// Context reuses its row buffer across Distance calls. It is not safe for
// concurrent use.
type Context struct {
	row []int
}

func (ctx *Context) buffer(length int) []int {
	if cap(ctx.row) < length {
		ctx.row = make([]int, length)
	}

	return ctx.row[:length]
}

// Distance returns the number of single-rune insertions, deletions and
// substitutions turning a into b.
func (ctx *Context) Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(rb) == 0 {
		return len(ra)
	}

	row := ctx.buffer(len(ra) + 1)
	for i := range row {
		row[i] = i
	}

	for j, cb := range rb {
		diag := row[0]
		row[0] = j + 1

		for i, ca := range ra {
			cost := 1
			if ca == cb {
				cost = 0
			}

			above := row[i+1]
			row[i+1] = min(above+1, row[i]+1, diag+cost)
			diag = above
		}
	}

	return row[len(ra)]
}

// Distance is Context.Distance with a fresh buffer.
func Distance(a, b string) int {
	var ctx Context

	return ctx.Distance(a, b)
}

// Closest returns the candidate nearest to word, provided it is within
// maxDistance edits. Ties go to the earlier candidate; an exact match is
// never a suggestion.
func Closest(word string, candidates []string, maxDistance int) (string, bool) {
	var (
		ctx  Context
		best string
	)

	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		if candidate == word {
			return "", false
		}

		if d := ctx.Distance(word, candidate); d < bestDistance {
			best, bestDistance = candidate, d
		}
	}

	return best, best != ""
}
