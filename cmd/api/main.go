package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/api"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/application/service"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/matching"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/vendor"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/config"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/logging"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	flag.Parse()

	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	cfg := config.LoadOrEnv_WithPath(*configFile)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err, "path", cfg.Storage.DatabasePath)
		os.Exit(1)
	}
	defer store.Close()

	matchService := matching.NewService(store, matchingConfig(cfg.Matching))
	dedupeService := service.NewDedupeService(cfg.Dedupe, store, logger)

	serverConfig := api.DefaultConfig()
	serverConfig.Port = cfg.Server.Port
	serverConfig.MatchConfig = vendorMatchConfig(cfg.Vendor)

	server := api.NewServer(serverConfig, store, matchService, dedupeService, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}

// matchingConfig overlays non-zero file/env values onto the built-in
// matching defaults.
func matchingConfig(mc config.MatchingConfig) matching.Config {
	c := matching.DefaultConfig()
	if mc.DateWindowDays > 0 {
		c.DateWindowDays = mc.DateWindowDays
	}
	if mc.RecentWindowDays > 0 {
		c.RecentWindowDays = mc.RecentWindowDays
	}
	if mc.AmountFilterPct > 0 {
		c.AmountFilterPct = mc.AmountFilterPct
	}
	if mc.CandidateLimit > 0 {
		c.CandidateLimit = mc.CandidateLimit
	}
	if mc.MinConfidence > 0 {
		c.MinConfidence = mc.MinConfidence
	}
	if mc.MaxResults > 0 {
		c.MaxResults = mc.MaxResults
	}
	return c
}

// vendorMatchConfig builds the comparison config, extending the built-in
// alias table with any configured aliases.
func vendorMatchConfig(vc config.VendorConfig) vendor.MatchConfig {
	c := vendor.DefaultMatchConfig()
	if vc.MinSimilarity > 0 {
		c.MinSimilarity = vc.MinSimilarity
	}
	c.StrictMode = vc.StrictMode
	if len(vc.Aliases) > 0 {
		c.Aliases = vendor.CreateAliasMap(vc.Aliases)
	}
	return c
}
