package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/matching"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/upload"
)

// Storage provides SQLite database access for ledger transactions, the
// vendor registry, and the statement upload log. It implements the
// Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time checks that Storage satisfies the repository interface and
// the domain ports it backs
var (
	_ Repository                     = (*Storage)(nil)
	_ matching.TransactionRepository = (*Storage)(nil)
	_ upload.Store                   = (*Storage)(nil)
)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveTransaction saves or updates a ledger transaction
func (s *Storage) SaveTransaction(ctx context.Context, tx *matching.LedgerTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	query := `
	INSERT OR REPLACE INTO ledger_transactions
	(id, user_id, amount, currency, txn_date, description, vendor_name, payment_method_name)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Amount,
		tx.Currency,
		tx.Date,
		tx.Description,
		tx.VendorName,
		tx.PaymentMethodName,
	)

	return err
}

// GetTransaction retrieves a ledger transaction by ID
func (s *Storage) GetTransaction(ctx context.Context, id string) (*matching.LedgerTransaction, error) {
	query := `
	SELECT id, user_id, amount, currency, txn_date, description, vendor_name, payment_method_name
	FROM ledger_transactions WHERE id = ?
	`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// FindCandidates returns the user's transactions inside the query's date
// and amount bounds, newest first, at most Limit rows
func (s *Storage) FindCandidates(ctx context.Context, query matching.CandidateQuery) ([]matching.LedgerTransaction, error) {
	sqlQuery := `
	SELECT id, user_id, amount, currency, txn_date, description, vendor_name, payment_method_name
	FROM ledger_transactions
	WHERE user_id = ?
	`
	args := []any{query.UserID}

	if query.DateRange != nil {
		sqlQuery += ` AND txn_date >= ? AND txn_date <= ?`
		args = append(args, query.DateRange.Start, query.DateRange.End)
	}
	if query.AmountRange != nil {
		sqlQuery += ` AND amount >= ? AND amount <= ?`
		args = append(args, query.AmountRange.Min, query.AmountRange.Max)
	}

	sqlQuery += ` ORDER BY txn_date DESC`
	if query.Limit > 0 {
		sqlQuery += ` LIMIT ?`
		args = append(args, query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var transactions []matching.LedgerTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}

	return transactions, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for shared scanning
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*matching.LedgerTransaction, error) {
	tx := &matching.LedgerTransaction{}
	var vendorName, paymentMethodName sql.NullString

	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Amount,
		&tx.Currency,
		&tx.Date,
		&tx.Description,
		&vendorName,
		&paymentMethodName,
	)
	if err != nil {
		return nil, err
	}

	tx.VendorName = vendorName.String
	tx.PaymentMethodName = paymentMethodName.String

	return tx, nil
}

// SaveVendor saves or updates a vendor registry row
func (s *Storage) SaveVendor(ctx context.Context, vendor *Vendor) error {
	if vendor.ID == "" {
		vendor.ID = uuid.NewString()
	}
	if vendor.CreatedAt.IsZero() {
		vendor.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT OR REPLACE INTO vendors
	(id, user_id, name, transaction_count, total_amount,
	 first_transaction_date, last_transaction_date, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		vendor.ID,
		vendor.UserID,
		vendor.Name,
		vendor.TransactionCount,
		vendor.TotalAmount,
		vendor.FirstTransactionDate,
		vendor.LastTransactionDate,
		vendor.CreatedAt,
	)

	return err
}

// GetVendor retrieves a vendor by ID
func (s *Storage) GetVendor(ctx context.Context, id string) (*Vendor, error) {
	query := `
	SELECT id, user_id, name, transaction_count, total_amount,
	       first_transaction_date, last_transaction_date, created_at
	FROM vendors WHERE id = ?
	`

	vendor, err := scanVendor(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return vendor, nil
}

// ListVendors returns all of a user's vendors ordered by name
func (s *Storage) ListVendors(ctx context.Context, userID string) ([]Vendor, error) {
	query := `
	SELECT id, user_id, name, transaction_count, total_amount,
	       first_transaction_date, last_transaction_date, created_at
	FROM vendors WHERE user_id = ? ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var vendors []Vendor
	for rows.Next() {
		vendor, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, *vendor)
	}

	return vendors, rows.Err()
}

func scanVendor(row scanner) (*Vendor, error) {
	vendor := &Vendor{}
	var totalAmount sql.NullFloat64
	var firstDate, lastDate sql.NullTime

	err := row.Scan(
		&vendor.ID,
		&vendor.UserID,
		&vendor.Name,
		&vendor.TransactionCount,
		&totalAmount,
		&firstDate,
		&lastDate,
		&vendor.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if totalAmount.Valid {
		vendor.TotalAmount = &totalAmount.Float64
	}
	if firstDate.Valid {
		vendor.FirstTransactionDate = &firstDate.Time
	}
	if lastDate.Valid {
		vendor.LastTransactionDate = &lastDate.Time
	}

	return vendor, nil
}

// RecordUpload persists a statement upload
func (s *Storage) RecordUpload(ctx context.Context, up *StatementUpload) error {
	if up.ID == "" {
		up.ID = uuid.NewString()
	}
	if up.UploadedAt.IsZero() {
		up.UploadedAt = time.Now().UTC()
	}
	if up.Status == "" {
		up.Status = "pending"
	}

	query := `
	INSERT OR REPLACE INTO statement_uploads
	(id, user_id, filename, file_hash, payment_method_id, uploaded_at,
	 statement_period_start, statement_period_end, status,
	 transactions_extracted, transactions_matched)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		up.ID,
		up.UserID,
		up.Filename,
		up.FileHash,
		up.PaymentMethodID,
		up.UploadedAt,
		up.StatementPeriodStart,
		up.StatementPeriodEnd,
		up.Status,
		up.TransactionsExtracted,
		up.TransactionsMatched,
	)

	return err
}

// FindByFileHash returns the user's upload with the given content hash
func (s *Storage) FindByFileHash(ctx context.Context, userID, fileHash string) (*upload.ExistingUpload, error) {
	query := uploadSelect + ` WHERE user_id = ? AND file_hash = ? LIMIT 1`

	up, err := scanUpload(s.db.QueryRowContext(ctx, query, userID, fileHash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	existing := up.Existing()
	return &existing, nil
}

// FindPeriodOverlaps returns the user's uploads on the payment method whose
// statement period intersects [start, end], excluding rows with excludeHash.
// Overlap: existing start <= new end AND existing end >= new start.
func (s *Storage) FindPeriodOverlaps(ctx context.Context, userID, paymentMethodID string, start, end time.Time, excludeHash string) ([]upload.ExistingUpload, error) {
	query := uploadSelect + `
	WHERE user_id = ?
	  AND payment_method_id = ?
	  AND statement_period_start IS NOT NULL
	  AND statement_period_end IS NOT NULL
	  AND statement_period_start <= ?
	  AND statement_period_end >= ?
	  AND file_hash != ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, paymentMethodID, end, start, excludeHash)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var overlaps []upload.ExistingUpload
	for rows.Next() {
		up, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		overlaps = append(overlaps, up.Existing())
	}

	return overlaps, rows.Err()
}

// ListUploads returns the user's uploads, newest first
func (s *Storage) ListUploads(ctx context.Context, userID string, limit int) ([]StatementUpload, error) {
	if limit == 0 {
		limit = 50
	}

	query := uploadSelect + ` WHERE user_id = ? ORDER BY uploaded_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var uploads []StatementUpload
	for rows.Next() {
		up, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, *up)
	}

	return uploads, rows.Err()
}

const uploadSelect = `
	SELECT id, user_id, filename, file_hash, payment_method_id, uploaded_at,
	       statement_period_start, statement_period_end, status,
	       transactions_extracted, transactions_matched
	FROM statement_uploads`

func scanUpload(row scanner) (*StatementUpload, error) {
	up := &StatementUpload{}
	var paymentMethodID sql.NullString
	var periodStart, periodEnd sql.NullTime

	err := row.Scan(
		&up.ID,
		&up.UserID,
		&up.Filename,
		&up.FileHash,
		&paymentMethodID,
		&up.UploadedAt,
		&periodStart,
		&periodEnd,
		&up.Status,
		&up.TransactionsExtracted,
		&up.TransactionsMatched,
	)
	if err != nil {
		return nil, err
	}

	up.PaymentMethodID = paymentMethodID.String
	if periodStart.Valid {
		up.StatementPeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		up.StatementPeriodEnd = &periodEnd.Time
	}

	return up, nil
}
