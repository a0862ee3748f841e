// Package upload guards statement ingestion against duplicate uploads.
//
// Two signals are checked: an exact content fingerprint (the same file
// uploaded twice) and a statement-period overlap on the same payment
// method (a different file covering a period already ingested). The first
// blocks unless forced; the second only warns, since issuers legitimately
// produce overlapping statements.
package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DuplicateType classifies how an existing upload collides with a new one.
type DuplicateType string

const (
	// DuplicateFileHash means the exact same file content was uploaded before.
	DuplicateFileHash DuplicateType = "file_hash"

	// DuplicatePeriodOverlap means a different file already covers an
	// overlapping statement period for the same payment method.
	DuplicatePeriodOverlap DuplicateType = "period_overlap"
)

// ExistingUpload is the prior upload a new one collides with.
type ExistingUpload struct {
	ID                    string     `json:"id"`
	Filename              string     `json:"filename"`
	UploadedAt            time.Time  `json:"uploaded_at"`
	StatementPeriodStart  *time.Time `json:"statement_period_start,omitempty"`
	StatementPeriodEnd    *time.Time `json:"statement_period_end,omitempty"`
	Status                string     `json:"status"`
	TransactionsExtracted int        `json:"transactions_extracted"`
	TransactionsMatched   int        `json:"transactions_matched"`
}

// DuplicateMatch pairs a collision type with the upload it collides with.
type DuplicateMatch struct {
	Type           DuplicateType  `json:"type"`
	ExistingUpload ExistingUpload `json:"existing_upload"`
}

// CheckResult is the outcome of a duplicate check. CanProceed is false only
// when a file-hash duplicate was found: period overlaps never block.
type CheckResult struct {
	HasDuplicate bool             `json:"has_duplicate"`
	Duplicates   []DuplicateMatch `json:"duplicates"`
	CanProceed   bool             `json:"can_proceed"`
}

// CheckParams describes the upload being vetted. PaymentMethodID and both
// period bounds must all be present for the overlap check to run.
type CheckParams struct {
	UserID          string
	FileHash        string
	PaymentMethodID string
	PeriodStart     *time.Time
	PeriodEnd       *time.Time
}

// Store is the port the detector reads prior uploads through.
//
// FindByFileHash returns the user's upload with the given content hash, or
// nil when none exists. FindPeriodOverlaps returns the user's uploads on
// the payment method whose statement period intersects [start, end],
// excluding rows with excludeHash (the exact-file case is reported
// separately).
type Store interface {
	FindByFileHash(ctx context.Context, userID, fileHash string) (*ExistingUpload, error)
	FindPeriodOverlaps(ctx context.Context, userID, paymentMethodID string, start, end time.Time, excludeHash string) ([]ExistingUpload, error)
}

// Fingerprint returns the lowercase hex SHA-256 digest of the file content.
// Identical bytes always fingerprint identically regardless of filename.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Detector runs duplicate checks against a store of prior uploads.
type Detector struct {
	store Store
}

// NewDetector creates a detector over the given upload store.
func NewDetector(store Store) *Detector {
	return &Detector{store: store}
}

// CheckForDuplicates looks for collisions with the user's prior uploads.
// Store errors abort the check: a failed lookup must never be read as
// "no duplicates".
func (d *Detector) CheckForDuplicates(ctx context.Context, params CheckParams) (CheckResult, error) {
	var duplicates []DuplicateMatch

	hashMatch, err := d.store.FindByFileHash(ctx, params.UserID, params.FileHash)
	if err != nil {
		return CheckResult{}, fmt.Errorf("file hash lookup failed: %w", err)
	}
	if hashMatch != nil {
		duplicates = append(duplicates, DuplicateMatch{
			Type:           DuplicateFileHash,
			ExistingUpload: *hashMatch,
		})
	}

	if params.PaymentMethodID != "" && params.PeriodStart != nil && params.PeriodEnd != nil {
		overlaps, err := d.store.FindPeriodOverlaps(ctx, params.UserID, params.PaymentMethodID,
			*params.PeriodStart, *params.PeriodEnd, params.FileHash)
		if err != nil {
			return CheckResult{}, fmt.Errorf("period overlap lookup failed: %w", err)
		}

		for _, existing := range overlaps {
			if containsUpload(duplicates, existing.ID) {
				continue
			}
			duplicates = append(duplicates, DuplicateMatch{
				Type:           DuplicatePeriodOverlap,
				ExistingUpload: existing,
			})
		}
	}

	return CheckResult{
		HasDuplicate: len(duplicates) > 0,
		Duplicates:   duplicates,
		CanProceed:   !hasFileHashDuplicate(duplicates),
	}, nil
}

// DuplicateMessage renders a user-facing summary of a check result, or ""
// when there is nothing to report. File-hash collisions take precedence.
func DuplicateMessage(result CheckResult) string {
	if !result.HasDuplicate {
		return ""
	}

	for _, d := range result.Duplicates {
		if d.Type == DuplicateFileHash {
			return fmt.Sprintf("This file has already been uploaded on %s",
				formatDate(&d.ExistingUpload.UploadedAt))
		}
	}

	for _, d := range result.Duplicates {
		if d.Type == DuplicatePeriodOverlap {
			return fmt.Sprintf("You already uploaded a statement for this period (%s - %s)",
				formatDate(d.ExistingUpload.StatementPeriodStart),
				formatDate(d.ExistingUpload.StatementPeriodEnd))
		}
	}

	return "A similar statement already exists"
}

func hasFileHashDuplicate(duplicates []DuplicateMatch) bool {
	for _, d := range duplicates {
		if d.Type == DuplicateFileHash {
			return true
		}
	}
	return false
}

func containsUpload(duplicates []DuplicateMatch, id string) bool {
	for _, d := range duplicates {
		if d.ExistingUpload.ID == id {
			return true
		}
	}
	return false
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "Unknown date"
	}
	return t.Format("Jan 2, 2006")
}
