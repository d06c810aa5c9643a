// Package textutil provides text helpers for emitted source: re-indentation,
// identifier casing, binary detection, and line counting.
package textutil

import (
	"bytes"
	"strings"
	"unicode"
)

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// CountLines returns the number of newline-delimited lines in data.
// A non-empty buffer without a trailing newline counts the last partial line.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// Dedent removes up to width leading blanks from every line after the first.
// Snippets cut from the middle of a line keep their first line untouched.
func Dedent(text string, width int) string {
	if width <= 0 || !strings.Contains(text, "\n") {
		return text
	}

	lines := strings.Split(text, "\n")

	for idx := 1; idx < len(lines); idx++ {
		lines[idx] = trimBlanks(lines[idx], width)
	}

	return strings.Join(lines, "\n")
}

func trimBlanks(line string, width int) string {
	cut := 0

	for cut < len(line) && cut < width && (line[cut] == ' ' || line[cut] == '\t') {
		cut++
	}

	return line[cut:]
}

// Indent prefixes every non-blank line with prefix.
func Indent(text, prefix string) string {
	lines := strings.Split(text, "\n")

	for idx, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[idx] = ""

			continue
		}

		lines[idx] = prefix + line
	}

	return strings.Join(lines, "\n")
}

// IndentRest prefixes every non-blank line after the first with prefix, for
// text that continues an already indented line.
func IndentRest(text, prefix string) string {
	head, tail, found := strings.Cut(text, "\n")
	if !found {
		return text
	}

	return head + "\n" + Indent(tail, prefix)
}

// Kebab converts camelCase to kebab-case the way Vue derives event names:
// every upper-case letter not at the start gains a leading hyphen.
func Kebab(name string) string {
	var sb strings.Builder

	for idx, r := range name {
		if unicode.IsUpper(r) {
			if idx > 0 && isWordRune(lastRune(name[:idx])) {
				sb.WriteByte('-')
			}

			sb.WriteRune(unicode.ToLower(r))

			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}

func lastRune(s string) rune {
	runes := []rune(s)

	return runes[len(runes)-1]
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsIdentifier reports whether s is a plain JavaScript identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for idx, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case idx > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}

	return true
}
