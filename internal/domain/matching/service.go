// Package matching ranks ledger transactions against an extracted record.
//
// Three factors are scored independently (vendor 50%, amount 40%, date 10%)
// and combined into an overall confidence. Candidate retrieval is delegated
// to a repository port so the scoring stays pure and unit-testable.
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/similarity"
)

// Service matches extracted transactions against a user's ledger.
type Service struct {
	repo   TransactionRepository
	config Config
}

// NewService creates a matching service over the given repository port.
func NewService(repo TransactionRepository, config Config) *Service {
	return &Service{repo: repo, config: config}
}

// FindMatchingTransactions retrieves a bounded candidate set for the user,
// scores each candidate, and returns the ranked matches at or above the
// confidence floor. Repository failure is reported in the result, not
// returned as an error: callers must distinguish it from an empty match set.
func (s *Service) FindMatchingTransactions(ctx context.Context, criteria MatchingCriteria, userID string, opts MatchOptions) MatchResult {
	minConfidence := opts.MinConfidence
	if minConfidence == 0 {
		minConfidence = s.config.MinConfidence
	}
	maxResults := opts.MaxResults
	if maxResults == 0 {
		maxResults = s.config.MaxResults
	}
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	query := s.buildQuery(criteria, userID, asOf)

	candidates, err := s.repo.FindCandidates(ctx, query)
	if err != nil {
		return MatchResult{Error: fmt.Sprintf("candidate lookup failed: %v", err)}
	}

	matches := make([]MatchCandidate, 0, len(candidates))
	for _, tx := range candidates {
		candidate := s.score(criteria, tx)
		if candidate.Confidence >= minConfidence {
			matches = append(matches, candidate)
		}
	}

	sortByConfidence(matches)
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	result := MatchResult{Success: true, Matches: matches}
	if len(matches) > 0 {
		result.BestMatch = &matches[0]
	}

	return result
}

// IsAutoMatchCandidate reports whether a match is strong enough for
// unattended auto-linking. The gate is stricter than the generic
// high-confidence threshold: a high overall score with a weak amount
// factor still requires review.
func (s *Service) IsAutoMatchCandidate(match MatchCandidate) bool {
	return match.Confidence >= s.config.AutoMatchConfidence &&
		match.Scores.Vendor >= s.config.AutoMatchVendorScore &&
		match.Scores.Amount >= s.config.AutoMatchAmountScore
}

func (s *Service) buildQuery(criteria MatchingCriteria, userID string, asOf time.Time) CandidateQuery {
	query := CandidateQuery{
		UserID: userID,
		Limit:  s.config.CandidateLimit,
	}

	if criteria.TransactionDate != nil {
		window := time.Duration(s.config.DateWindowDays) * 24 * time.Hour
		query.DateRange = &DateRange{
			Start: criteria.TransactionDate.Add(-window),
			End:   criteria.TransactionDate.Add(window),
		}
	} else {
		recent := time.Duration(s.config.RecentWindowDays) * 24 * time.Hour
		query.DateRange = &DateRange{
			Start: asOf.Add(-recent),
			End:   asOf,
		}
	}

	if criteria.Amount != nil {
		tolerance := *criteria.Amount * s.config.AmountFilterPct
		query.AmountRange = &AmountRange{
			Min: *criteria.Amount - tolerance,
			Max: *criteria.Amount + tolerance,
		}
	}

	return query
}

func (s *Service) score(criteria MatchingCriteria, tx LedgerTransaction) MatchCandidate {
	scores := FactorScores{
		Vendor: vendorScore(criteria.VendorName, tx),
		Amount: amountScore(criteria.Amount, tx.Amount),
		Date:   dateScore(criteria.TransactionDate, tx.Date),
	}

	weighted := float64(scores.Vendor)*s.config.VendorWeight +
		float64(scores.Amount)*s.config.AmountWeight +
		float64(scores.Date)*s.config.DateWeight

	return MatchCandidate{
		Transaction:  tx,
		Confidence:   int(math.Round(weighted)),
		Scores:       scores,
		MatchReasons: matchReasons(scores),
	}
}

// vendorScore compares the extracted vendor against the ledger description,
// vendor name, and payment-method name. A substring hit on the description
// or vendor name is a certain match; a payment-method hit is capped at 90
// because the payment method is a weaker signal than the vendor itself.
func vendorScore(extractedVendor string, tx LedgerTransaction) int {
	if extractedVendor == "" {
		return 0
	}

	vendor := strings.ToLower(strings.TrimSpace(extractedVendor))
	description := strings.ToLower(strings.TrimSpace(tx.Description))
	vendorName := strings.ToLower(strings.TrimSpace(tx.VendorName))
	paymentMethod := strings.ToLower(strings.TrimSpace(tx.PaymentMethodName))

	if containsEither(description, vendor) {
		return 100
	}
	if vendorName != "" && containsEither(vendorName, vendor) {
		return 100
	}
	if paymentMethod != "" && containsEither(paymentMethod, vendor) {
		return 90
	}

	descSim := similarity.Similarity(vendor, description)
	vendorSim := 0
	if vendorName != "" {
		vendorSim = similarity.Similarity(vendor, vendorName)
	}
	paymentSim := 0
	if paymentMethod != "" {
		paymentSim = int(float64(similarity.Similarity(vendor, paymentMethod)) * 0.9)
	}

	return max(descSim, vendorSim, paymentSim)
}

// amountScore decays from 100 at an exact match to 70 at the 5% relative
// difference boundary, then exponentially beyond it. The difference is
// measured relative to the ledger amount.
func amountScore(extractedAmount *float64, txAmount float64) int {
	if extractedAmount == nil || txAmount == 0 {
		return 0
	}

	relDiff := math.Abs(*extractedAmount-txAmount) / math.Abs(txAmount)

	const tolerance = 0.05
	switch {
	case relDiff == 0:
		return 100
	case relDiff <= tolerance:
		return int(math.Round(100 - (relDiff/tolerance)*30))
	default:
		return int(math.Round(70 * math.Exp(-relDiff*10)))
	}
}

// dateScore is neutral (50) when either side lacks a usable date, decays
// linearly from 100 to 60 inside the 5-day window, and exponentially
// beyond it.
func dateScore(extractedDate *time.Time, txDate time.Time) int {
	if extractedDate == nil || extractedDate.IsZero() || txDate.IsZero() {
		return 50
	}

	dayDiff := math.Abs(extractedDate.Sub(txDate).Hours() / 24)

	const windowDays = 5
	switch {
	case dayDiff == 0:
		return 100
	case dayDiff <= windowDays:
		return int(math.Round(100 - (dayDiff/windowDays)*40))
	default:
		return int(math.Round(60 * math.Exp(-dayDiff/30)))
	}
}

// matchReasons derives display strings from score thresholds. They are not
// used in scoring.
func matchReasons(scores FactorScores) []string {
	var reasons []string

	switch {
	case scores.Vendor >= 80:
		reasons = append(reasons, "strong vendor name match")
	case scores.Vendor >= 60:
		reasons = append(reasons, "partial vendor name match")
	}

	switch {
	case scores.Amount >= 95:
		reasons = append(reasons, "exact amount match")
	case scores.Amount >= 70:
		reasons = append(reasons, "similar amount")
	}

	switch {
	case scores.Date >= 90:
		reasons = append(reasons, "same date")
	case scores.Date >= 60:
		reasons = append(reasons, "close date (within 5 days)")
	}

	return reasons
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// sortByConfidence orders candidates descending by confidence, keeping the
// retrieval order for ties.
func sortByConfidence(matches []MatchCandidate) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
}
