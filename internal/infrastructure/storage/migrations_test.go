package storage

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// expectedMigrationCount is the number of migrations we expect to have
// Update this when adding new migrations
const expectedMigrationCount = 3

func TestMigrations_AllApplied(t *testing.T) {
	dbPath := createTempDB(t)

	store, err := NewStorage(dbPath)
	require.NoError(t, err)
	defer store.Close()

	var count int
	err = store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, expectedMigrationCount, count)
}

func TestMigrations_Idempotent(t *testing.T) {
	dbPath := createTempDB(t)

	// Open twice against the same file: the second run must be a no-op
	store, err := NewStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewStorage(dbPath)
	require.NoError(t, err)
	defer store.Close()

	var count int
	err = store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, expectedMigrationCount, count)
}

func TestMigrations_TablesExist(t *testing.T) {
	dbPath := createTempDB(t)

	store, err := NewStorage(dbPath)
	require.NoError(t, err)
	defer store.Close()

	tables := []string{"ledger_transactions", "vendors", "statement_uploads"}
	for _, table := range tables {
		query := fmt.Sprintf(`SELECT name FROM sqlite_master WHERE type='table' AND name='%s'`, table)
		var name string
		err := store.db.QueryRow(query).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrations_VersionsRecordedInOrder(t *testing.T) {
	dbPath := createTempDB(t)

	store, err := NewStorage(dbPath)
	require.NoError(t, err)
	defer store.Close()

	rows, err := store.db.Query(`SELECT version FROM schema_migrations ORDER BY version`)
	require.NoError(t, err)
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		versions = append(versions, v)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []int{1, 2, 3}, versions)
}

func TestMigrations_FailedMigrationRollsBack(t *testing.T) {
	dbPath := createTempDB(t)

	store, err := NewStorage(dbPath)
	require.NoError(t, err)

	// Sneak in a failing migration and re-run
	original := allMigrations
	defer func() { allMigrations = original }()
	allMigrations = append(allMigrations, Migration{
		Version: 99,
		Name:    "broken",
		Up: func(tx *sql.Tx) error {
			return fmt.Errorf("boom")
		},
	})

	err = store.runMigrations()
	require.Error(t, err)

	// The failed migration must not be recorded
	var count int
	err = store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = 99`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Close())
}
