// Package confidence grades how completely a transaction was extracted
// from a source document.
//
// Scoring breakdown (0-100):
//   - Required fields present (vendor, positive amount, valid date): 40
//   - Amount parsed correctly: 20
//   - Date parsed correctly: 20
//   - Vendor identified: 10
//   - Order/reference ID found: 10
package confidence

import (
	"fmt"
	"strings"
	"time"
)

// Status is the review state of an extracted transaction.
type Status string

const (
	StatusPendingReview       Status = "pending_review"
	StatusReadyToImport       Status = "ready_to_import"
	StatusWaitingForStatement Status = "waiting_for_statement"
)

// Level buckets a numeric score into a confidence band.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Band boundaries. Below Low forces manual review; at or above High the
// extraction is trusted.
const (
	ThresholdLow  = 55
	ThresholdHigh = 90
)

// Component weights, summing to 100.
const (
	weightRequiredFields = 40
	weightAmount         = 20
	weightDate           = 20
	weightVendor         = 10
	weightOrderID        = 10
)

// ExtractedTransaction is a candidate record produced by an external
// extractor. Optional fields are pointers so that a zero amount is
// distinguishable from an absent one.
type ExtractedTransaction struct {
	VendorName      string     `json:"vendor_name,omitempty"`
	VendorID        string     `json:"vendor_id,omitempty"`
	Amount          *float64   `json:"amount,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
	Description     string     `json:"description,omitempty"`
	OrderID         string     `json:"order_id,omitempty"`
}

// Component is one weighted piece of the confidence breakdown.
type Component struct {
	Name         string `json:"name"`
	MaxPoints    int    `json:"max_points"`
	EarnedPoints int    `json:"earned_points"`
	Satisfied    bool   `json:"satisfied"`
	Notes        string `json:"notes,omitempty"`
}

// Breakdown is the full confidence score with per-component detail.
type Breakdown struct {
	TotalScore int         `json:"total_score"`
	Components []Component `json:"components"`
	Level      Level       `json:"level"`
	Summary    string      `json:"summary"`
}

// CalculateConfidenceScore grades an extraction. A nil input yields a
// breakdown with every component unsatisfied and a total of zero.
func CalculateConfidenceScore(data *ExtractedTransaction) Breakdown {
	components := make([]Component, 0, 5)
	total := 0

	hasVendor := data != nil && data.VendorName != ""
	hasValidAmount := data != nil && data.Amount != nil && *data.Amount > 0
	hasValidDate := data != nil && data.TransactionDate != nil && !data.TransactionDate.IsZero()

	// Required Fields is all-or-nothing: a missing or invalid amount zeroes
	// this component as well as the Amount component.
	hasRequired := hasVendor && hasValidAmount && hasValidDate
	requiredNotes := "all required fields present (vendor, amount, date)"
	if !hasRequired {
		requiredNotes = missingFieldsNote(data, hasVendor, hasValidAmount, hasValidDate)
	}
	components = append(components, component("Required Fields", weightRequiredFields, hasRequired, requiredNotes))
	if hasRequired {
		total += weightRequiredFields
	}

	amountNotes := "no valid amount extracted"
	if hasValidAmount {
		amountNotes = fmt.Sprintf("amount: %s %.2f", data.Currency, *data.Amount)
	}
	components = append(components, component("Amount", weightAmount, hasValidAmount, amountNotes))
	if hasValidAmount {
		total += weightAmount
	}

	dateNotes := "no valid date extracted"
	if hasValidDate {
		dateNotes = "date: " + data.TransactionDate.Format("2006-01-02")
	}
	components = append(components, component("Date", weightDate, hasValidDate, dateNotes))
	if hasValidDate {
		total += weightDate
	}

	vendorNotes := "no vendor identified"
	if hasVendor {
		vendorNotes = "vendor: " + data.VendorName
		if data.VendorID != "" {
			vendorNotes += " (matched to database)"
		}
	}
	components = append(components, component("Vendor", weightVendor, hasVendor, vendorNotes))
	if hasVendor {
		total += weightVendor
	}

	hasOrderID := data != nil && data.OrderID != ""
	orderNotes := "no order/reference ID found"
	if hasOrderID {
		orderNotes = "order ID: " + data.OrderID
	}
	components = append(components, component("Order ID", weightOrderID, hasOrderID, orderNotes))
	if hasOrderID {
		total += weightOrderID
	}

	level := LevelForScore(total)

	return Breakdown{
		TotalScore: total,
		Components: components,
		Level:      level,
		Summary:    summarize(total, components, level),
	}
}

// LevelForScore maps a score to its confidence band: <55 low, 55-89 medium,
// >=90 high.
func LevelForScore(score int) Level {
	switch {
	case score < ThresholdLow:
		return LevelLow
	case score >= ThresholdHigh:
		return LevelHigh
	default:
		return LevelMedium
	}
}

// DetermineStatusFromConfidence resolves the final review status. Scores
// below the low threshold always force pending review; otherwise the
// classifier's status passes through unchanged.
func DetermineStatusFromConfidence(score int, classificationStatus Status) Status {
	if score < ThresholdLow {
		return StatusPendingReview
	}
	return classificationStatus
}

// IsHighConfidence reports whether a score reaches the high band.
func IsHighConfidence(score int) bool {
	return score >= ThresholdHigh
}

// IsLowConfidence reports whether a score requires manual review.
func IsLowConfidence(score int) bool {
	return score < ThresholdLow
}

func component(name string, maxPoints int, satisfied bool, notes string) Component {
	earned := 0
	if satisfied {
		earned = maxPoints
	}
	return Component{
		Name:         name,
		MaxPoints:    maxPoints,
		EarnedPoints: earned,
		Satisfied:    satisfied,
		Notes:        notes,
	}
}

func missingFieldsNote(data *ExtractedTransaction, hasVendor, hasAmount, hasDate bool) string {
	if data == nil {
		return "no data extracted"
	}

	var missing []string
	if !hasVendor {
		missing = append(missing, "vendor")
	}
	if !hasAmount {
		missing = append(missing, "amount")
	}
	if !hasDate {
		missing = append(missing, "date")
	}

	return "missing: " + strings.Join(missing, ", ")
}

func summarize(score int, components []Component, level Level) string {
	satisfied := 0
	for _, c := range components {
		if c.Satisfied {
			satisfied++
		}
	}

	var levelText string
	switch level {
	case LevelHigh:
		levelText = "high confidence"
	case LevelMedium:
		levelText = "medium confidence"
	default:
		levelText = "low confidence, needs review"
	}

	return fmt.Sprintf("%s (%d/100), %d/%d scoring criteria met", levelText, score, satisfied, len(components))
}
