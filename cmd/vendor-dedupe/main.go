// Command vendor-dedupe scans a user's vendor registry for likely
// duplicates and prints merge suggestions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/reconcilehq/ledger-reconcile-backend/internal/domain/dedupe"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/config"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/logging"
	"github.com/reconcilehq/ledger-reconcile-backend/internal/infrastructure/storage"
)

func main() {
	var (
		configFile    = flag.String("config", "config.yaml", "Configuration file path")
		userID        = flag.String("user", "", "User whose vendor registry to scan")
		minConfidence = flag.Float64("min-confidence", 0, "Minimum suggestion confidence (0 = configured default)")
		showClusters  = flag.Bool("clusters", false, "Group suggestions into merge clusters")
	)
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: vendor-dedupe -user <user-id> [-min-confidence N] [-clusters]")
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg := config.LoadOrEnv_WithPath(*configFile)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "dedupe")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err, "path", cfg.Storage.DatabasePath)
		os.Exit(1)
	}
	defer store.Close()

	vendors, err := store.ListVendors(context.Background(), *userID)
	if err != nil {
		logger.Error("failed to list vendors", "error", err)
		os.Exit(1)
	}

	opts := dedupe.Options{
		MinConfidence:  cfg.Dedupe.MinConfidence,
		MaxSuggestions: cfg.Dedupe.MaxSuggestions,
	}
	if *minConfidence > 0 {
		opts.MinConfidence = *minConfidence
	}

	suggestions := dedupe.FindDuplicateVendors(storage.VendorRecords(vendors), &opts)

	fmt.Printf("Scanned %d vendors for user %s: %d duplicate suggestion(s)\n\n",
		len(vendors), *userID, len(suggestions))

	for _, s := range suggestions {
		fmt.Printf("%6.2f%%  %-12s  %q -> %q\n",
			s.Confidence, dedupe.ConfidenceLevel(s.Confidence),
			s.SourceVendor.Name, s.TargetVendor.Name)
		for _, reason := range s.Reasons {
			fmt.Printf("         - %s\n", reason)
		}
	}

	if !*showClusters {
		return
	}

	clusters := dedupe.ClusterDuplicateVendors(suggestions, cfg.Dedupe.MinClusterConfidence)
	if len(clusters) == 0 {
		fmt.Println("\nNo merge clusters above the clustering threshold.")
		return
	}

	names := make(map[string]string, len(vendors))
	for _, v := range vendors {
		names[v.ID] = v.Name
	}

	representatives := make([]string, 0, len(clusters))
	for id := range clusters {
		representatives = append(representatives, id)
	}
	sort.Strings(representatives)

	fmt.Printf("\n%d merge cluster(s):\n", len(clusters))
	for _, rep := range representatives {
		members := make([]string, 0, len(clusters[rep]))
		for _, id := range clusters[rep] {
			members = append(members, names[id])
		}
		fmt.Printf("  %s: %s\n", names[rep], strings.Join(members, ", "))
	}
}
