// Package similarity provides the normalized string comparison primitives
// used by vendor matching and duplicate detection.
//
// Normalization strips the noise that bank statements add to merchant names
// (business suffixes, store numbers, asterisks) so that "STARBUCKS #1234"
// and "Starbucks Coffee Inc." compare as the same merchant.
package similarity

import (
	"math"
	"regexp"
	"strings"
)

var (
	businessSuffixRe = regexp.MustCompile(`(?i)\s+(inc|llc|ltd|corp|co|company|corporation)\.?$`)
	storeNumberRe    = regexp.MustCompile(`\s*#\d+$`)
	trailingNumberRe = regexp.MustCompile(`\s*-\s*\d+$`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
	edgePunctRe      = regexp.MustCompile(`^\W+|\W+$`)
)

// Normalize cleans a vendor name for comparison. The result is lowercase,
// trimmed, and free of business suffixes, store numbers, asterisks, and
// leading/trailing punctuation. Normalize is idempotent.
func Normalize(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "*", "")

	// Stripping one trailing pattern can expose another ("Foo Inc #123"
	// hides the suffix behind the store number), so strip until the name
	// stops changing.
	for {
		stripped := businessSuffixRe.ReplaceAllString(normalized, "")
		stripped = storeNumberRe.ReplaceAllString(stripped, "")
		stripped = trailingNumberRe.ReplaceAllString(stripped, "")
		stripped = whitespaceRe.ReplaceAllString(stripped, " ")
		stripped = edgePunctRe.ReplaceAllString(stripped, "")
		stripped = strings.TrimSpace(stripped)

		if stripped == normalized {
			return stripped
		}
		normalized = stripped
	}
}

// Levenshtein computes the edit distance between two strings using the
// classic dynamic programming algorithm. Insertions, deletions, and
// substitutions each cost 1.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	m := len(ra)
	n := len(rb)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// Similarity returns the similarity percentage (0-100) between two strings
// based on Levenshtein distance. Identical strings (including two empty
// strings) score 100; an empty string against a non-empty one scores 0.
func Similarity(a, b string) int {
	if a == b {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	distance := Levenshtein(a, b)
	maxLen := max(len([]rune(a)), len([]rune(b)))

	return int(math.Round(float64(maxLen-distance) / float64(maxLen) * 100))
}
