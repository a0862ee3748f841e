package dto

import (
	"fmt"
	"time"
)

// ScoreExtractionRequest carries an extracted transaction to grade.
// TransactionDate accepts YYYY-MM-DD or RFC 3339.
type ScoreExtractionRequest struct {
	VendorName      string   `json:"vendor_name,omitempty"`
	VendorID        string   `json:"vendor_id,omitempty"`
	Amount          *float64 `json:"amount,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	TransactionDate string   `json:"transaction_date,omitempty"`
	Description     string   `json:"description,omitempty"`
	OrderID         string   `json:"order_id,omitempty"`

	// Status is the classifier-chosen review status to reconcile against
	// the computed confidence (optional).
	Status string `json:"status,omitempty"`
}

// MatchRequest asks for ledger candidates matching an extracted transaction.
type MatchRequest struct {
	UserID          string   `json:"user_id"`
	VendorName      string   `json:"vendor_name,omitempty"`
	Amount          *float64 `json:"amount,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	TransactionDate string   `json:"transaction_date,omitempty"`
	MinConfidence   int      `json:"min_confidence,omitempty"`
	MaxResults      int      `json:"max_results,omitempty"`
}

// CompareVendorsRequest compares an extracted vendor name against a
// reference name.
type CompareVendorsRequest struct {
	Name          string `json:"name"`
	Reference     string `json:"reference"`
	MinSimilarity int    `json:"min_similarity,omitempty"`
	Strict        bool   `json:"strict,omitempty"`
}

// BestVendorMatchRequest finds the best match for a name among candidates.
type BestVendorMatchRequest struct {
	Name          string   `json:"name"`
	Candidates    []string `json:"candidates"`
	MinSimilarity int      `json:"min_similarity,omitempty"`
}

// CreateVendorRequest registers or updates a vendor.
type CreateVendorRequest struct {
	ID                   string   `json:"id,omitempty"`
	UserID               string   `json:"user_id"`
	Name                 string   `json:"name"`
	TransactionCount     int      `json:"transaction_count,omitempty"`
	TotalAmount          *float64 `json:"total_amount,omitempty"`
	FirstTransactionDate string   `json:"first_transaction_date,omitempty"`
	LastTransactionDate  string   `json:"last_transaction_date,omitempty"`
}

// CreateTransactionRequest adds a transaction to a user's ledger.
type CreateTransactionRequest struct {
	ID                string  `json:"id,omitempty"`
	UserID            string  `json:"user_id"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency,omitempty"`
	Date              string  `json:"date"`
	Description       string  `json:"description"`
	VendorName        string  `json:"vendor_name,omitempty"`
	PaymentMethodName string  `json:"payment_method_name,omitempty"`
}

// CheckUploadRequest vets a statement upload for duplicates before
// ingestion.
type CheckUploadRequest struct {
	UserID          string `json:"user_id"`
	FileHash        string `json:"file_hash"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	PeriodStart     string `json:"period_start,omitempty"`
	PeriodEnd       string `json:"period_end,omitempty"`
}

// RecordUploadRequest records a statement upload. Force overrides a
// file-hash duplicate (re-processing the same file).
type RecordUploadRequest struct {
	UserID                string `json:"user_id"`
	Filename              string `json:"filename"`
	FileHash              string `json:"file_hash"`
	PaymentMethodID       string `json:"payment_method_id,omitempty"`
	PeriodStart           string `json:"period_start,omitempty"`
	PeriodEnd             string `json:"period_end,omitempty"`
	Status                string `json:"status,omitempty"`
	TransactionsExtracted int    `json:"transactions_extracted,omitempty"`
	TransactionsMatched   int    `json:"transactions_matched,omitempty"`
	Force                 bool   `json:"force,omitempty"`
}

// ParseDate parses a request date in YYYY-MM-DD or RFC 3339 form. An empty
// string yields a nil time with no error.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}

	return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", value)
}
