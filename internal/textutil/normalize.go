package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeFragment folds compatibility characters (full-width digits,
// ligatures, non-breaking spaces) to their canonical form, drops control
// characters, and collapses runs of whitespace.
func NormalizeFragment(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return strings.Join(strings.Fields(normed), " ")
}

// NormalizeAll normalizes every entry and drops the ones left empty.
func NormalizeAll(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if n := NormalizeFragment(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
