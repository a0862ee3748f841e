package storage

import (
	"time"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/dedupe"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/upload"
)

// Vendor is a row in the vendor registry. The aggregate columns are
// maintained by the ingestion pipeline and consumed read-only by duplicate
// detection.
type Vendor struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	Name                 string     `json:"name"`
	TransactionCount     int        `json:"transaction_count"`
	TotalAmount          *float64   `json:"total_amount,omitempty"`
	FirstTransactionDate *time.Time `json:"first_transaction_date,omitempty"`
	LastTransactionDate  *time.Time `json:"last_transaction_date,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// Record converts the row into the duplicate detector's snapshot type.
func (v *Vendor) Record() dedupe.VendorRecord {
	return dedupe.VendorRecord{
		ID:                   v.ID,
		Name:                 v.Name,
		TransactionCount:     v.TransactionCount,
		TotalAmount:          v.TotalAmount,
		FirstTransactionDate: v.FirstTransactionDate,
		LastTransactionDate:  v.LastTransactionDate,
	}
}

// VendorRecords converts a vendor listing into detector snapshots.
func VendorRecords(vendors []Vendor) []dedupe.VendorRecord {
	records := make([]dedupe.VendorRecord, len(vendors))
	for i := range vendors {
		records[i] = vendors[i].Record()
	}
	return records
}

// StatementUpload is a row in the statement upload log. FileHash is the
// SHA-256 fingerprint of the uploaded file content.
type StatementUpload struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"user_id"`
	Filename              string     `json:"filename"`
	FileHash              string     `json:"file_hash"`
	PaymentMethodID       string     `json:"payment_method_id,omitempty"`
	UploadedAt            time.Time  `json:"uploaded_at"`
	StatementPeriodStart  *time.Time `json:"statement_period_start,omitempty"`
	StatementPeriodEnd    *time.Time `json:"statement_period_end,omitempty"`
	Status                string     `json:"status"`
	TransactionsExtracted int        `json:"transactions_extracted"`
	TransactionsMatched   int        `json:"transactions_matched"`
}

// Existing converts the row into the duplicate detector's view of a prior
// upload.
func (u *StatementUpload) Existing() upload.ExistingUpload {
	return upload.ExistingUpload{
		ID:                    u.ID,
		Filename:              u.Filename,
		UploadedAt:            u.UploadedAt,
		StatementPeriodStart:  u.StatementPeriodStart,
		StatementPeriodEnd:    u.StatementPeriodEnd,
		Status:                u.Status,
		TransactionsExtracted: u.TransactionsExtracted,
		TransactionsMatched:   u.TransactionsMatched,
	}
}
