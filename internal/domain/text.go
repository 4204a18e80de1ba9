package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded, trimmed form of s for case-insensitive
// comparison. A Caser is stateful, so one is built per call.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// EqualFold reports whether a and b are equal under Unicode case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
