package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/matching"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/upload"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	transactions map[string]*matching.LedgerTransaction
	vendors      map[string]*Vendor
	uploads      map[string]*StatementUpload
	nextID       int

	// Hooks for test assertions
	SaveTransactionCalled bool
	LastSavedTransaction  *matching.LedgerTransaction
	FindCandidatesCalled  bool
	LastCandidateQuery    matching.CandidateQuery
	SaveVendorCalled      bool
	RecordUploadCalled    bool
	LastRecordedUpload    *StatementUpload

	// Error injection for testing error paths
	SaveTransactionErr error
	FindCandidatesErr  error
	SaveVendorErr      error
	ListVendorsErr     error
	RecordUploadErr    error
	FindByFileHashErr  error
	FindOverlapsErr    error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		transactions: make(map[string]*matching.LedgerTransaction),
		vendors:      make(map[string]*Vendor),
		uploads:      make(map[string]*StatementUpload),
		nextID:       1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveTransaction saves a transaction to the in-memory map
func (m *MockRepository) SaveTransaction(_ context.Context, tx *matching.LedgerTransaction) error {
	m.SaveTransactionCalled = true
	m.LastSavedTransaction = tx
	if m.SaveTransactionErr != nil {
		return m.SaveTransactionErr
	}
	if tx.ID == "" {
		tx.ID = m.generateID("tx")
	}
	// Copy to avoid test mutations
	copied := *tx
	m.transactions[tx.ID] = &copied
	return nil
}

// GetTransaction retrieves a transaction from the in-memory map
func (m *MockRepository) GetTransaction(_ context.Context, id string) (*matching.LedgerTransaction, error) {
	tx, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	return tx, nil
}

// FindCandidates filters stored transactions the way the SQLite
// implementation does: user, date window, amount range, newest first, limit
func (m *MockRepository) FindCandidates(_ context.Context, query matching.CandidateQuery) ([]matching.LedgerTransaction, error) {
	m.FindCandidatesCalled = true
	m.LastCandidateQuery = query
	if m.FindCandidatesErr != nil {
		return nil, m.FindCandidatesErr
	}

	var candidates []matching.LedgerTransaction
	for _, tx := range m.transactions {
		if tx.UserID != query.UserID {
			continue
		}
		if query.DateRange != nil &&
			(tx.Date.Before(query.DateRange.Start) || tx.Date.After(query.DateRange.End)) {
			continue
		}
		if query.AmountRange != nil &&
			(tx.Amount < query.AmountRange.Min || tx.Amount > query.AmountRange.Max) {
			continue
		}
		candidates = append(candidates, *tx)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Date.After(candidates[j].Date)
	})

	if query.Limit > 0 && len(candidates) > query.Limit {
		candidates = candidates[:query.Limit]
	}

	return candidates, nil
}

// SaveVendor saves a vendor to the in-memory map
func (m *MockRepository) SaveVendor(_ context.Context, vendor *Vendor) error {
	m.SaveVendorCalled = true
	if m.SaveVendorErr != nil {
		return m.SaveVendorErr
	}
	if vendor.ID == "" {
		vendor.ID = m.generateID("vendor")
	}
	copied := *vendor
	m.vendors[vendor.ID] = &copied
	return nil
}

// GetVendor retrieves a vendor from the in-memory map
func (m *MockRepository) GetVendor(_ context.Context, id string) (*Vendor, error) {
	vendor, ok := m.vendors[id]
	if !ok {
		return nil, nil
	}
	return vendor, nil
}

// ListVendors returns a user's vendors ordered by name
func (m *MockRepository) ListVendors(_ context.Context, userID string) ([]Vendor, error) {
	if m.ListVendorsErr != nil {
		return nil, m.ListVendorsErr
	}

	var vendors []Vendor
	for _, v := range m.vendors {
		if v.UserID == userID {
			vendors = append(vendors, *v)
		}
	}

	sort.Slice(vendors, func(i, j int) bool {
		return vendors[i].Name < vendors[j].Name
	})

	return vendors, nil
}

// RecordUpload persists an upload to the in-memory map
func (m *MockRepository) RecordUpload(_ context.Context, up *StatementUpload) error {
	m.RecordUploadCalled = true
	m.LastRecordedUpload = up
	if m.RecordUploadErr != nil {
		return m.RecordUploadErr
	}
	if up.ID == "" {
		up.ID = m.generateID("upload")
	}
	if up.UploadedAt.IsZero() {
		up.UploadedAt = time.Now().UTC()
	}
	if up.Status == "" {
		up.Status = "pending"
	}
	copied := *up
	m.uploads[up.ID] = &copied
	return nil
}

// FindByFileHash returns the user's upload with the given content hash
func (m *MockRepository) FindByFileHash(_ context.Context, userID, fileHash string) (*upload.ExistingUpload, error) {
	if m.FindByFileHashErr != nil {
		return nil, m.FindByFileHashErr
	}

	for _, up := range m.uploads {
		if up.UserID == userID && up.FileHash == fileHash {
			existing := up.Existing()
			return &existing, nil
		}
	}
	return nil, nil
}

// FindPeriodOverlaps returns uploads with intersecting statement periods
func (m *MockRepository) FindPeriodOverlaps(_ context.Context, userID, paymentMethodID string, start, end time.Time, excludeHash string) ([]upload.ExistingUpload, error) {
	if m.FindOverlapsErr != nil {
		return nil, m.FindOverlapsErr
	}

	var overlaps []upload.ExistingUpload
	for _, up := range m.uploads {
		if up.UserID != userID || up.PaymentMethodID != paymentMethodID {
			continue
		}
		if up.FileHash == excludeHash {
			continue
		}
		if up.StatementPeriodStart == nil || up.StatementPeriodEnd == nil {
			continue
		}
		if up.StatementPeriodStart.After(end) || up.StatementPeriodEnd.Before(start) {
			continue
		}
		overlaps = append(overlaps, up.Existing())
	}
	return overlaps, nil
}

// ListUploads returns the user's uploads, newest first
func (m *MockRepository) ListUploads(_ context.Context, userID string, limit int) ([]StatementUpload, error) {
	if limit == 0 {
		limit = 50
	}

	var uploads []StatementUpload
	for _, up := range m.uploads {
		if up.UserID == userID {
			uploads = append(uploads, *up)
		}
	}

	sort.Slice(uploads, func(i, j int) bool {
		return uploads[i].UploadedAt.After(uploads[j].UploadedAt)
	})

	if len(uploads) > limit {
		uploads = uploads[:limit]
	}

	return uploads, nil
}

// Helper methods for test setup

// AddTransaction adds a transaction directly (for test setup)
func (m *MockRepository) AddTransaction(tx matching.LedgerTransaction) {
	m.transactions[tx.ID] = &tx
}

// AddVendor adds a vendor directly (for test setup)
func (m *MockRepository) AddVendor(vendor Vendor) {
	m.vendors[vendor.ID] = &vendor
}

// AddUpload adds an upload directly (for test setup)
func (m *MockRepository) AddUpload(up StatementUpload) {
	m.uploads[up.ID] = &up
}

// Reset clears all data and flags (for reuse between tests)
func (m *MockRepository) Reset() {
	m.transactions = make(map[string]*matching.LedgerTransaction)
	m.vendors = make(map[string]*Vendor)
	m.uploads = make(map[string]*StatementUpload)
	m.nextID = 1
	m.SaveTransactionCalled = false
	m.LastSavedTransaction = nil
	m.FindCandidatesCalled = false
	m.LastCandidateQuery = matching.CandidateQuery{}
	m.SaveVendorCalled = false
	m.RecordUploadCalled = false
	m.LastRecordedUpload = nil
	m.SaveTransactionErr = nil
	m.FindCandidatesErr = nil
	m.SaveVendorErr = nil
	m.ListVendorsErr = nil
	m.RecordUploadErr = nil
	m.FindByFileHashErr = nil
	m.FindOverlapsErr = nil
}

func (m *MockRepository) generateID(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, m.nextID)
	m.nextID++
	return id
}
