// Package suggest finds the closest known name for a mistyped one.
package suggest

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Closest returns the candidate nearest to name by edit distance, compared
// case-insensitively. ok is false when nothing is close enough: the
// distance must be below 40% of the longer string and at most 3.
func Closest(name string, candidates []string) (best string, ok bool) {
	key := strings.ToLower(name)
	bestDist := -1
	for _, c := range candidates {
		dist := levenshtein.ComputeDistance(key, strings.ToLower(c))
		maxLen := max(len(key), len(c))
		if maxLen == 0 || dist > 3 || float64(dist)/float64(maxLen) >= 0.4 {
			continue
		}
		if bestDist < 0 || dist < bestDist || (dist == bestDist && c < best) {
			best, bestDist = c, dist
		}
	}
	return best, bestDist >= 0
}

// Hint formats a " (did you mean %q?)" suffix, or "" when nothing is close.
func Hint(name string, candidates []string) string {
	if best, ok := Closest(name, candidates); ok {
		return fmt.Sprintf(" (did you mean %q?)", best)
	}
	return ""
}
