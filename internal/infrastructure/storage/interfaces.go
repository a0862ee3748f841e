package storage

import (
	"context"
	"time"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/matching"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/upload"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	TransactionRepository
	VendorRepository
	UploadRepository
	Close() error
}

// TransactionRepository handles ledger transaction operations. It satisfies
// the matching service's candidate-retrieval port.
type TransactionRepository interface {
	// SaveTransaction saves or updates a ledger transaction. A missing ID
	// is assigned.
	SaveTransaction(ctx context.Context, tx *matching.LedgerTransaction) error

	// GetTransaction retrieves a transaction by ID, nil if absent
	GetTransaction(ctx context.Context, id string) (*matching.LedgerTransaction, error)

	// FindCandidates returns the user's transactions inside the query's
	// date and amount bounds, at most Limit rows
	FindCandidates(ctx context.Context, query matching.CandidateQuery) ([]matching.LedgerTransaction, error)
}

// VendorRepository handles vendor registry operations
type VendorRepository interface {
	// SaveVendor saves or updates a vendor. A missing ID is assigned.
	SaveVendor(ctx context.Context, vendor *Vendor) error

	// GetVendor retrieves a vendor by ID, nil if absent
	GetVendor(ctx context.Context, id string) (*Vendor, error)

	// ListVendors returns all of a user's vendors ordered by name
	ListVendors(ctx context.Context, userID string) ([]Vendor, error)
}

// UploadRepository handles statement upload tracking. Its lookup methods
// satisfy the duplicate detector's store port.
type UploadRepository interface {
	// RecordUpload persists a statement upload. A missing ID is assigned.
	RecordUpload(ctx context.Context, up *StatementUpload) error

	// FindByFileHash returns the user's upload with the given content
	// hash, nil if none exists
	FindByFileHash(ctx context.Context, userID, fileHash string) (*upload.ExistingUpload, error)

	// FindPeriodOverlaps returns the user's uploads on the payment method
	// whose statement period intersects [start, end], excluding rows with
	// excludeHash
	FindPeriodOverlaps(ctx context.Context, userID, paymentMethodID string, start, end time.Time, excludeHash string) ([]upload.ExistingUpload, error)

	// ListUploads returns the user's uploads, newest first
	ListUploads(ctx context.Context, userID string, limit int) ([]StatementUpload, error)
}
