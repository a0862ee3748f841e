package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestFindDuplicateVendors_ExactNameMatch(t *testing.T) {
	// Arrange
	vendors := []VendorRecord{
		{ID: "v1", Name: "Starbucks", TransactionCount: 50},
		{ID: "v2", Name: "starbucks", TransactionCount: 3},
	}

	// Act
	suggestions := FindDuplicateVendors(vendors, nil)

	// Assert
	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0].Reasons, "exact name match (case-insensitive)")
	// name 100 * 0.6, no dates 40 * 0.2, divergent volumes 0 * 0.2
	assert.InDelta(t, 68.0, suggestions[0].Confidence, 0.01)
}

func TestFindDuplicateVendors_TargetIsEstablishedVendor(t *testing.T) {
	vendors := []VendorRecord{
		{ID: "v1", Name: "NETFLIX.COM", TransactionCount: 3},
		{ID: "v2", Name: "Netflix", TransactionCount: 50},
	}

	suggestions := FindDuplicateVendors(vendors, nil)

	require.Len(t, suggestions, 1)
	assert.Equal(t, "v2", suggestions[0].TargetVendor.ID)
	assert.Equal(t, "v1", suggestions[0].SourceVendor.ID)
}

func TestFindDuplicateVendors_NormalizedMatch(t *testing.T) {
	vendors := []VendorRecord{
		{ID: "v1", Name: "Starbucks Inc.", TransactionCount: 10},
		{ID: "v2", Name: "Starbucks", TransactionCount: 10},
	}

	suggestions := FindDuplicateVendors(vendors, nil)

	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0].Reasons, "identical after normalization")
	assert.Contains(t, suggestions[0].Reasons, "similar transaction volumes")
	// name 95 * 0.6, no dates 40 * 0.2, equal volumes 100 * 0.2
	assert.InDelta(t, 85.0, suggestions[0].Confidence, 0.01)
}

func TestFindDuplicateVendors_UnrelatedNamesFiltered(t *testing.T) {
	vendors := []VendorRecord{
		{ID: "v1", Name: "Uber", TransactionCount: 10},
		{ID: "v2", Name: "Lyft", TransactionCount: 10},
	}

	suggestions := FindDuplicateVendors(vendors, nil)

	assert.Empty(t, suggestions)
}

func TestFindDuplicateVendors_SortedByConfidence(t *testing.T) {
	vendors := []VendorRecord{
		{ID: "v1", Name: "Uber", TransactionCount: 10},
		{ID: "v2", Name: "uber", TransactionCount: 10},
		{ID: "v3", Name: "Uber Inc", TransactionCount: 10},
	}

	suggestions := FindDuplicateVendors(vendors, nil)

	require.Len(t, suggestions, 3)
	for i := 1; i < len(suggestions); i++ {
		assert.GreaterOrEqual(t, suggestions[i-1].Confidence, suggestions[i].Confidence)
	}
}

func TestFindDuplicateVendors_MaxSuggestionsCap(t *testing.T) {
	vendors := []VendorRecord{
		{ID: "v1", Name: "Uber", TransactionCount: 10},
		{ID: "v2", Name: "uber", TransactionCount: 10},
		{ID: "v3", Name: "Uber Inc", TransactionCount: 10},
	}

	suggestions := FindDuplicateVendors(vendors, &Options{MaxSuggestions: 1})

	assert.Len(t, suggestions, 1)
}

func TestFindDuplicateVendors_ExcludePairsBothOrderings(t *testing.T) {
	vendors := []VendorRecord{
		{ID: "v1", Name: "Starbucks", TransactionCount: 10},
		{ID: "v2", Name: "starbucks", TransactionCount: 10},
	}

	forward := FindDuplicateVendors(vendors, &Options{ExcludePairs: map[string]bool{"v1:v2": true}})
	reverse := FindDuplicateVendors(vendors, &Options{ExcludePairs: map[string]bool{"v2:v1": true}})

	assert.Empty(t, forward)
	assert.Empty(t, reverse)
}

func TestFindDuplicateVendors_AbbreviationMatch(t *testing.T) {
	vendors := []VendorRecord{
		{ID: "v1", Name: "SBUX", TransactionCount: 10},
		{ID: "v2", Name: "Starbucks", TransactionCount: 10},
	}

	suggestions := FindDuplicateVendors(vendors, nil)

	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0].Reasons, "identical after normalization")
	// name 95 * 0.6, no dates 40 * 0.2, equal volumes 100 * 0.2
	assert.InDelta(t, 85.0, suggestions[0].Confidence, 0.01)
	assert.Equal(t, "v2", suggestions[0].TargetVendor.ID)
}

func TestNameSimilarity_Blend(t *testing.T) {
	score, reasons := nameSimilarity("Blue Bottle Cafes", "Blue Bottle")

	// levenshtein 66.67 * 0.6, containment 80 * 0.2, word overlap 66.67 * 0.2
	assert.InDelta(t, 69.33, score, 0.01)
	assert.Contains(t, reasons, "one name contains the other")
	assert.Contains(t, reasons, "names share significant words")
}

func TestNameSimilarity_ConsumerSuffix(t *testing.T) {
	score, reasons := nameSimilarity("Starbucks Coffee", "Starbucks")

	assert.InDelta(t, 95.0, score, 0.01)
	assert.Contains(t, reasons, "identical after normalization")
}

func TestNormalizeForRegistry(t *testing.T) {
	cases := map[string]string{
		"Starbucks Inc.":   "starbucks",
		"ACME Corporation": "acme",
		"NETFLIX.COM":      "netflixcom",
		"  Blue  Bottle  ": "blue bottle",
		"7-Eleven Co":      "7eleven",
		"Amazon Group":     "amazon",
		"SBUX":             "starbucks",
		"AMZN":             "amazon",
		"Starbucks Coffee": "starbucks",
		"H&M":              "handm",
		"711":              "7eleven",
		"Costco Wholesale": "costco",
		"McDonald's":       "mcdonalds",
	}

	for input, want := range cases {
		assert.Equal(t, want, normalizeForRegistry(input), "input %q", input)
	}
}

func TestDateRangeSignal_Complementary(t *testing.T) {
	a := VendorRecord{
		FirstTransactionDate: day(2024, 1, 1),
		LastTransactionDate:  day(2024, 3, 31),
	}
	b := VendorRecord{
		FirstTransactionDate: day(2024, 4, 15),
		LastTransactionDate:  day(2024, 6, 30),
	}

	score, reason := dateRangeSignal(a, b)

	assert.Equal(t, 75.0, score)
	assert.Equal(t, "sequential date ranges (one vendor may have replaced the other)", reason)

	// Order must not matter
	score, _ = dateRangeSignal(b, a)
	assert.Equal(t, 75.0, score)
}

func TestDateRangeSignal_Disjoint(t *testing.T) {
	a := VendorRecord{
		FirstTransactionDate: day(2023, 1, 1),
		LastTransactionDate:  day(2023, 3, 31),
	}
	b := VendorRecord{
		FirstTransactionDate: day(2024, 6, 1),
		LastTransactionDate:  day(2024, 9, 30),
	}

	score, _ := dateRangeSignal(a, b)

	assert.Equal(t, 40.0, score)
}

func TestDateRangeSignal_FullOverlap(t *testing.T) {
	a := VendorRecord{
		FirstTransactionDate: day(2024, 1, 1),
		LastTransactionDate:  day(2024, 12, 31),
	}
	b := VendorRecord{
		FirstTransactionDate: day(2024, 1, 1),
		LastTransactionDate:  day(2024, 12, 31),
	}

	score, reason := dateRangeSignal(a, b)

	assert.InDelta(t, 100.0, score, 0.01)
	assert.Equal(t, "overlapping transaction date ranges", reason)
}

func TestVolumeSimilarity(t *testing.T) {
	assert.Equal(t, 100.0, volumeSimilarity(10, 10))
	assert.Equal(t, 0.0, volumeSimilarity(0, 0))

	// 100 * (1 - 5/7.5)
	assert.InDelta(t, 33.33, volumeSimilarity(10, 5), 0.01)

	// Clamped, never negative
	assert.Equal(t, 0.0, volumeSimilarity(50, 3))
}

func TestPreferenceScore_PenalizesStatementCodes(t *testing.T) {
	clean := VendorRecord{Name: "Amazon Marketplace", TransactionCount: 10}
	coded := VendorRecord{Name: "AMZN1234567", TransactionCount: 10}

	assert.Greater(t, preferenceScore(clean, coded), preferenceScore(coded, clean))
}

func TestClusterDuplicateVendors_ChainsIntoOneCluster(t *testing.T) {
	suggestions := []DuplicateSuggestion{
		{SourceVendor: VendorRecord{ID: "a"}, TargetVendor: VendorRecord{ID: "b"}, Confidence: 90},
		{SourceVendor: VendorRecord{ID: "c"}, TargetVendor: VendorRecord{ID: "b"}, Confidence: 85},
		{SourceVendor: VendorRecord{ID: "d"}, TargetVendor: VendorRecord{ID: "e"}, Confidence: 60},
	}

	clusters := ClusterDuplicateVendors(suggestions, 0)

	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"a", "b", "c"}, clusters["b"])
}

func TestClusterDuplicateVendors_MergesClusters(t *testing.T) {
	suggestions := []DuplicateSuggestion{
		{SourceVendor: VendorRecord{ID: "a"}, TargetVendor: VendorRecord{ID: "b"}, Confidence: 90},
		{SourceVendor: VendorRecord{ID: "c"}, TargetVendor: VendorRecord{ID: "d"}, Confidence: 90},
		{SourceVendor: VendorRecord{ID: "b"}, TargetVendor: VendorRecord{ID: "c"}, Confidence: 80},
	}

	clusters := ClusterDuplicateVendors(suggestions, 0)

	require.Len(t, clusters, 1)
	for _, members := range clusters {
		assert.Equal(t, []string{"a", "b", "c", "d"}, members)
	}
}

func TestClusterDuplicateVendors_CustomThreshold(t *testing.T) {
	suggestions := []DuplicateSuggestion{
		{SourceVendor: VendorRecord{ID: "a"}, TargetVendor: VendorRecord{ID: "b"}, Confidence: 55},
	}

	assert.Empty(t, ClusterDuplicateVendors(suggestions, 0))
	assert.Len(t, ClusterDuplicateVendors(suggestions, 50), 1)
}

func TestConfidenceLevel_Bands(t *testing.T) {
	assert.Equal(t, "high", ConfidenceLevel(80))
	assert.Equal(t, "medium", ConfidenceLevel(79.99))
	assert.Equal(t, "medium", ConfidenceLevel(55))
	assert.Equal(t, "low", ConfidenceLevel(54.99))
}
