// Package service holds application-level services that orchestrate domain
// logic over storage.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/dedupe"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/config"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

// DefaultAnalysisTTL is how long a user's duplicate analysis stays cached.
// The pairwise scan is quadratic in vendor count, so repeat requests within
// the window are served from cache.
const DefaultAnalysisTTL = 15 * time.Minute

// DedupeAnalysis is the result of a duplicate scan over a user's vendor
// registry.
type DedupeAnalysis struct {
	UserID      string                       `json:"user_id"`
	AnalyzedAt  time.Time                    `json:"analyzed_at"`
	VendorCount int                          `json:"vendor_count"`
	Suggestions []dedupe.DuplicateSuggestion `json:"suggestions"`
	Clusters    map[string][]string          `json:"clusters"`
	FromCache   bool                         `json:"from_cache"`
}

// DedupeService runs vendor duplicate analysis with per-user result caching.
type DedupeService struct {
	store  storage.VendorRepository
	logger *slog.Logger
	cache  *cache.Cache

	opts                 dedupe.Options
	minClusterConfidence float64
}

// NewDedupeService creates a dedupe service from config. Zero config values
// fall back to the domain defaults.
func NewDedupeService(cfg config.DedupeConfig, store storage.VendorRepository, logger *slog.Logger) *DedupeService {
	ttl := DefaultAnalysisTTL
	if cfg.CacheTTLMinutes > 0 {
		ttl = time.Duration(cfg.CacheTTLMinutes) * time.Minute
	}

	return &DedupeService{
		store:  store,
		logger: logger,
		cache:  cache.New(ttl, 2*ttl),
		opts: dedupe.Options{
			MinConfidence:  cfg.MinConfidence,
			MaxSuggestions: cfg.MaxSuggestions,
		},
		minClusterConfidence: cfg.MinClusterConfidence,
	}
}

// Analyze scans the user's vendor registry for probable duplicates. A cached
// analysis is returned when fresh; force bypasses and replaces the cache.
func (s *DedupeService) Analyze(ctx context.Context, userID string, force bool) (*DedupeAnalysis, error) {
	key := cacheKey(userID)

	if !force {
		if cached, found := s.cache.Get(key); found {
			analysis := cached.(*DedupeAnalysis)
			result := *analysis
			result.FromCache = true
			return &result, nil
		}
	}

	vendors, err := s.store.ListVendors(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("vendor listing failed: %w", err)
	}

	records := storage.VendorRecords(vendors)
	suggestions := dedupe.FindDuplicateVendors(records, &s.opts)
	clusters := dedupe.ClusterDuplicateVendors(suggestions, s.minClusterConfidence)

	analysis := &DedupeAnalysis{
		UserID:      userID,
		AnalyzedAt:  time.Now().UTC(),
		VendorCount: len(vendors),
		Suggestions: suggestions,
		Clusters:    clusters,
	}

	s.logger.Info("vendor duplicate analysis complete",
		"user_id", userID,
		"vendors", len(vendors),
		"suggestions", len(suggestions),
		"clusters", len(clusters),
	)

	s.cache.SetDefault(key, analysis)

	return analysis, nil
}

// Invalidate drops the cached analysis for a user, e.g. after a merge.
func (s *DedupeService) Invalidate(userID string) {
	s.cache.Delete(cacheKey(userID))
}

func cacheKey(userID string) string {
	return "dedupe:" + userID
}
