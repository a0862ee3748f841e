package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_vendors_table",
		Up:      migration002AddVendorsTable,
	},
	{
		Version: 3,
		Name:    "add_statement_uploads_table",
		Up:      migration003AddStatementUploadsTable,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	// Ensure migrations table exists
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get applied migrations
	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	// Run pending migrations
	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		// Run migration in transaction
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		// Execute migration
		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		// Record migration
		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		// Commit
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		log.Printf("✅ Migration %d complete", migration.Version)
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ================================================================
// MIGRATION FUNCTIONS
// ================================================================

// migration001InitialSchema creates the ledger_transactions table
func migration001InitialSchema(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ledger_transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			amount REAL NOT NULL,
			currency TEXT DEFAULT 'USD',
			txn_date TIMESTAMP NOT NULL,
			description TEXT NOT NULL,
			vendor_name TEXT,
			payment_method_name TEXT
		)`,

		// Candidate retrieval filters by user, date window, and amount range
		`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_user_date
		 ON ledger_transactions(user_id, txn_date)`,

		`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_amount
		 ON ledger_transactions(amount)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// migration002AddVendorsTable creates the vendor registry table
func migration002AddVendorsTable(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS vendors (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			transaction_count INTEGER DEFAULT 0,
			total_amount REAL,
			first_transaction_date TIMESTAMP,
			last_transaction_date TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_vendors_user
		 ON vendors(user_id)`,

		`CREATE INDEX IF NOT EXISTS idx_vendors_name
		 ON vendors(name)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// migration003AddStatementUploadsTable creates the upload log used for
// duplicate detection
func migration003AddStatementUploadsTable(db *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS statement_uploads (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			file_hash TEXT NOT NULL,
			payment_method_id TEXT,
			uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			statement_period_start TIMESTAMP,
			statement_period_end TIMESTAMP,
			status TEXT DEFAULT 'pending',
			transactions_extracted INTEGER DEFAULT 0,
			transactions_matched INTEGER DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_statement_uploads_user_hash
		 ON statement_uploads(user_id, file_hash)`,

		`CREATE INDEX IF NOT EXISTS idx_statement_uploads_payment_method
		 ON statement_uploads(user_id, payment_method_id)`,

		`CREATE INDEX IF NOT EXISTS idx_statement_uploads_uploaded
		 ON statement_uploads(uploaded_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
