package application

import (
	"fmt"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// maxSuggestionDistance bounds how far a candidate may be from the input
// and still be offered as a suggestion.
const maxSuggestionDistance = 3

// closestMatch returns the candidate with the smallest edit distance to
// target. Matching uses Unicode case folding. It returns false when no candidate is
// within maxSuggestionDistance or the distance is not smaller than target
// itself, so short unrelated inputs get no suggestion.
func closestMatch(target string, candidates []string) (string, bool) {
	// A Caser is stateful, so each call folds with its own.
	caser := cases.Fold()
	folded := caser.String(target)
	best, bestDistance := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(folded, caser.String(c))
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = c, d
		}
	}
	if bestDistance < 0 || bestDistance > maxSuggestionDistance || bestDistance >= len(target) {
		return "", false
	}
	return best, true
}

// suggestion formats a "did you mean" hint, or returns "" when nothing is
// close enough.
func suggestion(target string, candidates []string) string {
	if match, ok := closestMatch(target, candidates); ok {
		return fmt.Sprintf(" (did you mean %q?)", match)
	}
	return ""
}
