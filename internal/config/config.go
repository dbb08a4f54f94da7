// Package config loads pipeline configuration from environment variables.
// CLI flags override everything here; the environment supplies defaults and
// the optional database connection.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config represents the complete pipeline configuration
type Config struct {
	Database DatabaseConfig
	Paths    PathConfig
	Analysis AnalysisConfig
}

// DatabaseConfig holds the optional results-mirror connection
type DatabaseConfig struct {
	// URL is a Postgres DSN; empty disables database persistence.
	URL string
}

// PathConfig holds the input and output file locations
type PathConfig struct {
	DistanceMatrix string
	Metadata       string
	Axes           string
	Loadings       string
	OutputDir      string
}

// AnalysisConfig holds the permutation settings
type AnalysisConfig struct {
	Permutations int
	Seed         int64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Paths: PathConfig{
			DistanceMatrix: os.Getenv("DIST_FILE"),
			Metadata:       os.Getenv("METADATA_FILE"),
			Axes:           os.Getenv("AXES_FILE"),
			Loadings:       os.Getenv("LOADINGS_FILE"),
			OutputDir:      getEnvOr("OUTPUT_DIR", "results"),
		},
		Analysis: AnalysisConfig{
			Permutations: 9999,
			Seed:         1,
		},
	}

	if v := os.Getenv("PERMUTATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid PERMUTATIONS %q", v)
		}
		cfg.Analysis.Permutations = n
	}
	if v := os.Getenv("SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SEED %q", v)
		}
		cfg.Analysis.Seed = n
	}
	return cfg, nil
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
