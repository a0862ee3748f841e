// Package dedupe finds probable duplicate vendors in a registry snapshot.
//
// Every unordered vendor pair gets a composite confidence from three
// signals: name similarity (60%), transaction date-range analysis (20%),
// and transaction-volume similarity (20%). Pairs above a confidence floor
// become merge suggestions; a preference score picks which vendor survives
// the merge.
package dedupe

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// VendorRecord is a read-only registry snapshot row. The detector never
// writes vendor records, it only proposes merges.
type VendorRecord struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	TransactionCount     int        `json:"transaction_count"`
	TotalAmount          *float64   `json:"total_amount,omitempty"`
	FirstTransactionDate *time.Time `json:"first_transaction_date,omitempty"`
	LastTransactionDate  *time.Time `json:"last_transaction_date,omitempty"`
}

// DuplicateSuggestion proposes merging SourceVendor into TargetVendor.
// The target is the proposed survivor.
type DuplicateSuggestion struct {
	SourceVendor VendorRecord `json:"source_vendor"`
	TargetVendor VendorRecord `json:"target_vendor"`
	Confidence   float64      `json:"confidence"`
	Reasons      []string     `json:"reasons"`
}

// Options tunes duplicate detection. Zero values fall back to defaults.
type Options struct {
	// MinConfidence is the floor for reporting a pair (default 40).
	MinConfidence float64

	// MaxSuggestions caps the returned list (default 100).
	MaxSuggestions int

	// ExcludePairs holds "sourceID:targetID" keys for already-reviewed
	// pairs; both orderings are honored.
	ExcludePairs map[string]bool
}

// Detection defaults.
const (
	DefaultMinConfidence        = 40
	DefaultMaxSuggestions       = 100
	DefaultMinClusterConfidence = 70
)

// Signal weights.
const (
	nameWeight   = 0.6
	dateWeight   = 0.2
	volumeWeight = 0.2
)

// FindDuplicateVendors compares every unordered pair of vendors and returns
// merge suggestions at or above the confidence floor, sorted descending and
// capped at MaxSuggestions.
func FindDuplicateVendors(vendors []VendorRecord, opts *Options) []DuplicateSuggestion {
	minConfidence := float64(DefaultMinConfidence)
	maxSuggestions := DefaultMaxSuggestions
	var excludePairs map[string]bool

	if opts != nil {
		if opts.MinConfidence > 0 {
			minConfidence = opts.MinConfidence
		}
		if opts.MaxSuggestions > 0 {
			maxSuggestions = opts.MaxSuggestions
		}
		excludePairs = opts.ExcludePairs
	}

	var suggestions []DuplicateSuggestion

	for i := 0; i < len(vendors); i++ {
		for j := i + 1; j < len(vendors); j++ {
			a := vendors[i]
			b := vendors[j]

			if excludePairs[a.ID+":"+b.ID] || excludePairs[b.ID+":"+a.ID] {
				continue
			}

			confidence, reasons := vendorSimilarity(a, b)
			if confidence < minConfidence {
				continue
			}

			source, target := mergeDirection(a, b)
			suggestions = append(suggestions, DuplicateSuggestion{
				SourceVendor: source,
				TargetVendor: target,
				Confidence:   confidence,
				Reasons:      reasons,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return suggestions
}

// vendorSimilarity combines the three weighted signals into a 0-100
// confidence.
func vendorSimilarity(a, b VendorRecord) (float64, []string) {
	var reasons []string

	nameScore, nameReasons := nameSimilarity(a.Name, b.Name)
	reasons = append(reasons, nameReasons...)

	dateScore, dateReason := dateRangeSignal(a, b)
	if dateReason != "" {
		reasons = append(reasons, dateReason)
	}

	volumeScore := volumeSimilarity(a.TransactionCount, b.TransactionCount)
	if absInt(a.TransactionCount-b.TransactionCount) <= 2 {
		reasons = append(reasons, "similar transaction volumes")
	}

	confidence := nameScore*nameWeight + dateScore*dateWeight + volumeScore*volumeWeight

	return math.Round(confidence*100) / 100, reasons
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]`)

// registryExpansions rewrites statement abbreviations to the merchant's
// full name before comparison, so "SBUX" and "Starbucks" collapse to the
// same normalized form. Applied in order, whole words only.
var registryExpansions = []struct {
	re   *regexp.Regexp
	full string
}{
	{expansionPattern("&"), "and"},
	{expansionPattern("+"), "plus"},
	{expansionPattern("mc"), "mac"},
	{expansionPattern("mcd's"), "mcdonalds"},
	{expansionPattern("mickey d's"), "mcdonalds"},
	{expansionPattern("sbux"), "starbucks"},
	{expansionPattern("amzn"), "amazon"},
	{expansionPattern("tgt"), "target"},
	{expansionPattern("wmt"), "walmart"},
	{expansionPattern("costco wholesale"), "costco"},
	{expansionPattern("kroger co"), "kroger"},
	{expansionPattern("7 eleven"), "7eleven"},
	{expansionPattern("711"), "7eleven"},
}

func expansionPattern(abbr string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(abbr) + `\b`)
}

// The registry list extends the statement suffixes with the consumer words
// that distinguish a storefront from its brand ("Starbucks Coffee" is the
// same vendor as "Starbucks").
var registrySuffixes = []string{
	"inc", "llc", "ltd", "corp", "corporation", "company", "co",
	"group", "international", "intl", "enterprises",
	"bar", "restaurant", "cafe", "coffee", "shop", "store",
}

// normalizeForRegistry lower-cases a vendor name, expands known
// abbreviations, strips business suffixes and special characters, and
// collapses whitespace. Unlike the statement normalizer this keeps word
// boundaries so overlap can be measured; callers squash the spaces out for
// equality and edit-distance checks.
func normalizeForRegistry(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))

	for _, exp := range registryExpansions {
		normalized = exp.re.ReplaceAllString(normalized, exp.full)
	}

	for _, suffix := range registrySuffixes {
		normalized = strings.TrimSuffix(strings.TrimSpace(normalized), " "+suffix)
		normalized = strings.TrimSuffix(normalized, " "+suffix+".")
	}

	normalized = nonAlnumRe.ReplaceAllString(normalized, "")
	normalized = strings.Join(strings.Fields(normalized), " ")

	return normalized
}

func squash(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// nameSimilarity scores two names 0-100. Exact and normalized-equal names
// score outright; everything else blends edit distance (60%), containment
// (20%), and significant-word overlap (20%).
func nameSimilarity(name1, name2 string) (float64, []string) {
	if strings.EqualFold(name1, name2) {
		return 100, []string{"exact name match (case-insensitive)"}
	}

	norm1 := normalizeForRegistry(name1)
	norm2 := normalizeForRegistry(name2)
	squashed1 := squash(norm1)
	squashed2 := squash(norm2)

	if squashed1 == squashed2 {
		return 95, []string{"identical after normalization"}
	}

	var reasons []string

	levScore := levenshteinSimilarity(squashed1, squashed2)
	if levScore >= 80 {
		reasons = append(reasons, fmt.Sprintf("very similar spelling: %q and %q", norm1, norm2))
	} else if levScore >= 60 {
		reasons = append(reasons, fmt.Sprintf("similar spelling (%d%% match)", int(math.Round(levScore))))
	}

	containsScore := 0.0
	if squashed1 != "" && squashed2 != "" &&
		(strings.Contains(squashed1, squashed2) || strings.Contains(squashed2, squashed1)) {
		containsScore = 80
		reasons = append(reasons, "one name contains the other")
	}

	overlapScore := wordOverlap(norm1, norm2)
	if overlapScore >= 50 {
		reasons = append(reasons, "names share significant words")
	}

	score := levScore*0.6 + containsScore*0.2 + overlapScore*0.2

	return score, reasons
}

func levenshteinSimilarity(a, b string) float64 {
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 100
	}

	return float64(maxLen-levenshtein(a, b)) / float64(maxLen) * 100
}

// levenshtein is the classic DP edit distance; kept local so the registry
// comparison can run on squashed byte strings.
func levenshtein(a, b string) int {
	m := len(a)
	n := len(b)
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
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// wordOverlap is the share of words common to both names, counting only
// significant words (length > 2), relative to the longer word list.
func wordOverlap(norm1, norm2 string) float64 {
	words1 := strings.Fields(norm1)
	words2 := strings.Fields(norm2)
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}

	set2 := make(map[string]bool, len(words2))
	for _, w := range words2 {
		set2[w] = true
	}

	common := 0
	for _, w := range words1 {
		if len(w) > 2 && set2[w] {
			common++
		}
	}

	return float64(common) / float64(max(len(words1), len(words2))) * 100
}

// dateRangeSignal scores the relationship between two vendors' active
// periods. Complementary ranges (one starting within 30 days after the
// other ends) suggest a rename and score 75; fully disjoint ranges are
// ambiguous and score 40; overlapping ranges score their percentage
// overlap relative to the larger span.
func dateRangeSignal(a, b VendorRecord) (float64, string) {
	if hasComplementaryRanges(a, b) || hasComplementaryRanges(b, a) {
		return 75, "sequential date ranges (one vendor may have replaced the other)"
	}

	overlap := dateOverlapPct(a, b)
	if overlap == 0 {
		return 40, ""
	}

	reason := ""
	if overlap > 50 {
		reason = "overlapping transaction date ranges"
	}
	return overlap, reason
}

// hasComplementaryRanges reports whether b's range starts within 30 days
// after a's range ends.
func hasComplementaryRanges(a, b VendorRecord) bool {
	if a.FirstTransactionDate == nil || a.LastTransactionDate == nil ||
		b.FirstTransactionDate == nil || b.LastTransactionDate == nil {
		return false
	}

	if !b.FirstTransactionDate.After(*a.LastTransactionDate) {
		return false
	}

	gap := b.FirstTransactionDate.Sub(*a.LastTransactionDate)
	return gap <= 30*24*time.Hour
}

// dateOverlapPct is the overlap of the two active ranges as a percentage
// of the larger range's span. Missing dates yield 0.
func dateOverlapPct(a, b VendorRecord) float64 {
	if a.FirstTransactionDate == nil || a.LastTransactionDate == nil ||
		b.FirstTransactionDate == nil || b.LastTransactionDate == nil {
		return 0
	}

	overlapStart := maxTime(*a.FirstTransactionDate, *b.FirstTransactionDate)
	overlapEnd := minTime(*a.LastTransactionDate, *b.LastTransactionDate)
	if overlapStart.After(overlapEnd) {
		return 0
	}

	spanA := a.LastTransactionDate.Sub(*a.FirstTransactionDate)
	spanB := b.LastTransactionDate.Sub(*b.FirstTransactionDate)
	largest := spanA
	if spanB > largest {
		largest = spanB
	}
	if largest == 0 {
		return 0
	}

	return float64(overlapEnd.Sub(overlapStart)) / float64(largest) * 100
}

// volumeSimilarity compares transaction counts: 100·(1 − |Δ|/avg), clamped
// to [0, 100].
func volumeSimilarity(countA, countB int) float64 {
	avg := float64(countA+countB) / 2
	if avg == 0 {
		return 0
	}

	similarity := (1 - float64(absInt(countA-countB))/avg) * 100
	if similarity < 0 {
		return 0
	}
	return similarity
}

var digitRunRe = regexp.MustCompile(`\d{4,}`)

// mergeDirection picks the survivor of a merge. The vendor with the higher
// preference score becomes the target (kept); the other is merged away.
func mergeDirection(a, b VendorRecord) (source, target VendorRecord) {
	if preferenceScore(a, b) >= preferenceScore(b, a) {
		return b, a
	}
	return a, b
}

// preferenceScore favors the vendor with more transaction history and a
// more complete-looking name.
func preferenceScore(v, other VendorRecord) float64 {
	score := 0.0

	// Transaction count dominates, log-scaled so name quality can still
	// break near-ties.
	if v.TransactionCount+other.TransactionCount > 0 {
		score += math.Log1p(float64(v.TransactionCount)) * 100

		if v.TransactionCount >= other.TransactionCount*2 {
			score += 200
		}
	}

	score += float64(len(v.Name)) * 2

	if strings.Contains(v.Name, " ") {
		score += 20
	}
	if v.Name != strings.ToLower(v.Name) {
		score += 10
	}

	// Short names and long digit runs look like truncated statement codes.
	if len(v.Name) < 5 || digitRunRe.MatchString(v.Name) {
		score -= 30
	}

	return score
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
