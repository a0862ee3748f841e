// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	minSim := cfg.Vendor.MinSimilarity
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Matching      MatchingConfig      `yaml:"matching"`
	Vendor        VendorConfig        `yaml:"vendor"`
	Dedupe        DedupeConfig        `yaml:"dedupe"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// MatchingConfig holds transaction-matching tunables. Zero values mean
// "use the built-in default" so a partial YAML file stays valid.
type MatchingConfig struct {
	DateWindowDays   int     `yaml:"date_window_days"`
	RecentWindowDays int     `yaml:"recent_window_days"`
	AmountFilterPct  float64 `yaml:"amount_filter_pct"`
	CandidateLimit   int     `yaml:"candidate_limit"`
	MinConfidence    int     `yaml:"min_confidence"`
	MaxResults       int     `yaml:"max_results"`
}

// VendorConfig holds vendor-matching settings. Aliases extends the built-in
// alias table: keys are canonical vendor names, values their statement
// spellings.
type VendorConfig struct {
	MinSimilarity int                 `yaml:"min_similarity"`
	StrictMode    bool                `yaml:"strict_mode"`
	Aliases       map[string][]string `yaml:"aliases"`
}

// DedupeConfig holds vendor duplicate-detection settings
type DedupeConfig struct {
	MinConfidence        float64 `yaml:"min_confidence"`
	MaxSuggestions       int     `yaml:"max_suggestions"`
	MinClusterConfidence float64 `yaml:"min_cluster_confidence"`
	CacheTTLMinutes      int     `yaml:"cache_ttl_minutes"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECONCILE_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("RECONCILE_HOST", "0.0.0.0"),
			Port: getEnvInt("RECONCILE_PORT", 8080),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("RECONCILE_DB_PATH", "reconcile.db"),
		},
		Matching: MatchingConfig{
			MinConfidence: getEnvInt("MATCHING_MIN_CONFIDENCE", 0),
			MaxResults:    getEnvInt("MATCHING_MAX_RESULTS", 0),
		},
		Vendor: VendorConfig{
			MinSimilarity: getEnvInt("VENDOR_MIN_SIMILARITY", 0),
		},
		Dedupe: DedupeConfig{
			CacheTTLMinutes: getEnvInt("DEDUPE_CACHE_TTL_MINUTES", 0),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
