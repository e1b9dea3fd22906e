// Package config reads application configuration from the environment.
// Binaries load a .env file first (godotenv), then build a Config here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"psychofit/domain/core"
	"psychofit/domain/psychometric"
	"psychofit/internal/analysis"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
	Analysis AnalysisConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DataConfig holds the session-file layout
type DataConfig struct {
	// Root is the directory the dataset directories live under. Always
	// passed explicitly; nothing changes the process working directory.
	Root string
	// Datasets maps logical dataset names to directories under Root
	Datasets map[core.DatasetName]string
	// RecentSessions caps loading to the newest N sessions, 0 = all
	RecentSessions int
}

// AnalysisConfig holds fitting settings
type AnalysisConfig struct {
	Model         psychometric.Model
	Target        float64
	MaxConcurrent int64
}

// defaultDatasets mirrors the texture-discrimination datasets the analysis
// was first built around; DATASET_DIRS overrides it.
var defaultDatasets = map[core.DatasetName]string{
	"bricks004": "Bricks004_results",
	"bricks101": "Bricks101_results",
	"rock062":   "Rock062_results",
}

// Load builds configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: envOr("PORT", "8080"),
		},
		Data: DataConfig{
			Root:           envOr("DATA_ROOT", "."),
			Datasets:       defaultDatasets,
			RecentSessions: envInt("RECENT_SESSIONS", 0),
		},
		Analysis: AnalysisConfig{
			Model:         psychometric.ModelLogistic,
			Target:        analysis.DefaultTarget,
			MaxConcurrent: int64(envInt("MAX_CONCURRENT_ANALYSES", 4)),
		},
	}

	if raw := os.Getenv("DATASET_DIRS"); raw != "" {
		datasets, err := parseDatasetDirs(raw)
		if err != nil {
			return nil, err
		}
		cfg.Data.Datasets = datasets
	}
	if raw := os.Getenv("PSYCHOMETRIC_MODEL"); raw != "" {
		model, err := psychometric.ParseModel(raw)
		if err != nil {
			return nil, err
		}
		cfg.Analysis.Model = model
	}
	if raw := os.Getenv("TARGET_PERFORMANCE"); raw != "" {
		target, err := strconv.ParseFloat(raw, 64)
		if err != nil || target <= 0 || target >= 1 {
			return nil, fmt.Errorf("TARGET_PERFORMANCE must be in (0,1), got %q", raw)
		}
		cfg.Analysis.Target = target
	}
	if cfg.Analysis.MaxConcurrent < 1 {
		cfg.Analysis.MaxConcurrent = 1
	}
	return cfg, nil
}

// parseDatasetDirs parses "name=dir,name=dir" registry entries
func parseDatasetDirs(raw string) (map[core.DatasetName]string, error) {
	datasets := make(map[core.DatasetName]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, dir, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(dir) == "" {
			return nil, fmt.Errorf("DATASET_DIRS entry %q is not name=dir", pair)
		}
		datasets[core.DatasetName(strings.TrimSpace(name))] = strings.TrimSpace(dir)
	}
	if len(datasets) == 0 {
		return nil, fmt.Errorf("DATASET_DIRS is set but empty")
	}
	return datasets, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
