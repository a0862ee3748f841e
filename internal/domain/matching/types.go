package matching

import (
	"context"
	"time"
)

// LedgerTransaction is an existing record in a user's ledger, as returned
// by the repository port. The matching service only reads it.
type LedgerTransaction struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	Date              time.Time `json:"date"`
	Description       string    `json:"description"`
	VendorName        string    `json:"vendor_name,omitempty"`
	PaymentMethodName string    `json:"payment_method_name,omitempty"`
}

// MatchingCriteria carries the extracted fields to match against the ledger.
// Optional fields are pointers; nil means the extractor could not supply
// the value.
type MatchingCriteria struct {
	VendorName      string     `json:"vendor_name,omitempty"`
	Amount          *float64   `json:"amount,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
}

// FactorScores holds the per-factor scores behind a candidate's confidence.
type FactorScores struct {
	Vendor int `json:"vendor_score"`
	Amount int `json:"amount_score"`
	Date   int `json:"date_score"`
}

// MatchCandidate is a ledger transaction paired with its match confidence
// against an extracted record. Candidates are built fresh per call and never
// cached: ledger state may change between calls.
type MatchCandidate struct {
	Transaction  LedgerTransaction `json:"transaction"`
	Confidence   int               `json:"confidence"`
	Scores       FactorScores      `json:"scores"`
	MatchReasons []string          `json:"match_reasons"`
}

// MatchResult is the outcome of a matching run. A failed repository lookup
// sets Success=false with Error; finding zero candidates is a successful
// run with an empty Matches slice.
type MatchResult struct {
	Success   bool             `json:"success"`
	Matches   []MatchCandidate `json:"matches"`
	BestMatch *MatchCandidate  `json:"best_match"`
	Error     string           `json:"error,omitempty"`
}

// DateRange is a closed interval of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// AmountRange is a closed interval of amounts.
type AmountRange struct {
	Min float64
	Max float64
}

// CandidateQuery describes the pre-filter the repository applies before
// scoring. Limit caps the rows returned.
type CandidateQuery struct {
	UserID      string
	DateRange   *DateRange
	AmountRange *AmountRange
	Limit       int
}

// TransactionRepository is the port the matching service reads candidates
// through. Implementations filter by user, date window, and amount range,
// returning at most Limit rows. The service treats any error as a lookup
// failure and never retries.
type TransactionRepository interface {
	FindCandidates(ctx context.Context, query CandidateQuery) ([]LedgerTransaction, error)
}

// MatchOptions tunes a matching run. Zero values fall back to defaults.
type MatchOptions struct {
	// MinConfidence filters out candidates below this overall confidence
	// (default 50).
	MinConfidence int

	// MaxResults caps the ranked list (default 5).
	MaxResults int

	// AsOf anchors the recent-transactions window used when the criteria
	// carry no date (default: time.Now).
	AsOf time.Time
}

// Config holds the matching service's tunable constants.
type Config struct {
	// DateWindowDays bounds candidate retrieval around the extracted date.
	DateWindowDays int

	// RecentWindowDays bounds retrieval when no date was extracted.
	RecentWindowDays int

	// AmountFilterPct widens the retrieval amount range around the
	// extracted amount (coarse pre-filter, not the final score).
	AmountFilterPct float64

	// CandidateLimit caps the rows fetched for scoring.
	CandidateLimit int

	// MinConfidence and MaxResults are the per-run defaults.
	MinConfidence int
	MaxResults    int

	// VendorWeight, AmountWeight, and DateWeight combine the factor scores
	// into the overall confidence. They should sum to 1.
	VendorWeight float64
	AmountWeight float64
	DateWeight   float64

	// AutoMatch gate: every bound must be met for unattended linking.
	AutoMatchConfidence  int
	AutoMatchVendorScore int
	AutoMatchAmountScore int
}

// DefaultConfig returns the standard matching constants.
func DefaultConfig() Config {
	return Config{
		DateWindowDays:       30,
		RecentWindowDays:     90,
		AmountFilterPct:      0.10,
		CandidateLimit:       50,
		MinConfidence:        50,
		MaxResults:           5,
		VendorWeight:         0.5,
		AmountWeight:         0.4,
		DateWeight:           0.1,
		AutoMatchConfidence:  90,
		AutoMatchVendorScore: 80,
		AutoMatchAmountScore: 95,
	}
}
