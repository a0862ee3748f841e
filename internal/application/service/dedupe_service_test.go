package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/config"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

func newTestService(repo *storage.MockRepository) *DedupeService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDedupeService(config.DedupeConfig{}, repo, logger)
}

func seedDuplicateVendors(repo *storage.MockRepository) {
	repo.AddVendor(storage.Vendor{ID: "v1", UserID: "user-1", Name: "Starbucks", TransactionCount: 50})
	repo.AddVendor(storage.Vendor{ID: "v2", UserID: "user-1", Name: "starbucks", TransactionCount: 3})
	repo.AddVendor(storage.Vendor{ID: "v3", UserID: "user-1", Name: "Lyft", TransactionCount: 10})
}

func TestAnalyze_FindsDuplicates(t *testing.T) {
	repo := storage.NewMockRepository()
	seedDuplicateVendors(repo)
	svc := newTestService(repo)

	analysis, err := svc.Analyze(context.Background(), "user-1", false)

	require.NoError(t, err)
	assert.Equal(t, "user-1", analysis.UserID)
	assert.Equal(t, 3, analysis.VendorCount)
	assert.False(t, analysis.FromCache)
	require.Len(t, analysis.Suggestions, 1)
	assert.Equal(t, "v1", analysis.Suggestions[0].TargetVendor.ID)
}

func TestAnalyze_SecondCallServedFromCache(t *testing.T) {
	repo := storage.NewMockRepository()
	seedDuplicateVendors(repo)
	svc := newTestService(repo)

	_, err := svc.Analyze(context.Background(), "user-1", false)
	require.NoError(t, err)

	// Fail the store: a cache hit must not touch it
	repo.ListVendorsErr = errors.New("db down")

	cached, err := svc.Analyze(context.Background(), "user-1", false)
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	require.Len(t, cached.Suggestions, 1)
}

func TestAnalyze_ForceBypassesCache(t *testing.T) {
	repo := storage.NewMockRepository()
	seedDuplicateVendors(repo)
	svc := newTestService(repo)

	_, err := svc.Analyze(context.Background(), "user-1", false)
	require.NoError(t, err)

	// The registry changed since the first analysis
	repo.AddVendor(storage.Vendor{ID: "v4", UserID: "user-1", Name: "STARBUCKS #1234", TransactionCount: 1})

	forced, err := svc.Analyze(context.Background(), "user-1", true)
	require.NoError(t, err)
	assert.False(t, forced.FromCache)
	assert.Equal(t, 4, forced.VendorCount)
}

func TestAnalyze_CacheIsPerUser(t *testing.T) {
	repo := storage.NewMockRepository()
	seedDuplicateVendors(repo)
	repo.AddVendor(storage.Vendor{ID: "v5", UserID: "user-2", Name: "Uber", TransactionCount: 5})
	svc := newTestService(repo)

	first, err := svc.Analyze(context.Background(), "user-1", false)
	require.NoError(t, err)

	second, err := svc.Analyze(context.Background(), "user-2", false)
	require.NoError(t, err)

	assert.False(t, second.FromCache)
	assert.NotEqual(t, first.VendorCount, second.VendorCount)
}

func TestAnalyze_StoreErrorPropagates(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.ListVendorsErr = errors.New("db down")
	svc := newTestService(repo)

	_, err := svc.Analyze(context.Background(), "user-1", false)

	assert.Error(t, err)
}

func TestInvalidate_DropsCachedAnalysis(t *testing.T) {
	repo := storage.NewMockRepository()
	seedDuplicateVendors(repo)
	svc := newTestService(repo)

	_, err := svc.Analyze(context.Background(), "user-1", false)
	require.NoError(t, err)

	svc.Invalidate("user-1")

	fresh, err := svc.Analyze(context.Background(), "user-1", false)
	require.NoError(t, err)
	assert.False(t, fresh.FromCache)
}
