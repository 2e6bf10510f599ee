// Package matching scores payment/transaction pairs and resolves them into
// one-to-one matches.
package matching

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity returns a normalized edit-distance similarity in [0,1].
// Inputs are case-folded and trimmed. Two empty strings are identical;
// one empty string shares nothing with a non-empty one.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}

	distance := levenshtein.ComputeDistance(a, b)
	return float64(longest-distance) / float64(longest)
}
