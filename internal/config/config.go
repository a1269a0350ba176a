// Package config loads process configuration and tuning parameters.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all process-level configuration values.
type Config struct {
	// Logging
	LogFile  string
	LogLevel slog.Level

	// Tuning knobs for the heartbeat and partitioner.
	Tuning Tuning
}

// Tuning holds the empirical cost-model and partitioning parameters.
// Values come from defaults, optionally overridden by a YAML file.
type Tuning struct {
	// HeartbeatInterval is the cadence of estimated-progress events.
	HeartbeatInterval time.Duration
	// SecondsPerPage is the baseline conversion cost with no enrichment
	// scaling applied.
	SecondsPerPage float64
	// PartitionThreshold is the page count above which large documents are
	// split when an expensive enrichment is enabled.
	PartitionThreshold int
	// PartitionRangeSize is the page count of each partition.
	PartitionRangeSize int
}

// DefaultTuning returns the built-in tuning values. The 1.5s/page baseline
// is a conservative estimate measured on laptop-class hardware.
func DefaultTuning() Tuning {
	return Tuning{
		HeartbeatInterval:  2 * time.Second,
		SecondsPerPage:     1.5,
		PartitionThreshold: 200,
		PartitionRangeSize: 100,
	}
}

// Load reads configuration from environment variables, layering the
// optional YAML tuning file from DOCCHUNK_TUNING on top of the defaults.
func Load() Config {
	cfg := Config{
		LogFile:  getEnv("DOCCHUNK_LOG_FILE", "/tmp/docchunk.log"),
		LogLevel: parseLogLevel(getEnv("DOCCHUNK_LOG_LEVEL", "INFO")),
		Tuning:   DefaultTuning(),
	}

	if path := os.Getenv("DOCCHUNK_TUNING"); path != "" {
		if err := loadTuningFile(path, &cfg.Tuning); err != nil {
			slog.Warn("failed to load tuning file, using defaults", "path", path, "error", err)
		}
	}

	return cfg
}

// loadTuningFile overlays values from a YAML file onto t. Absent or
// non-positive keys keep their current values.
func loadTuningFile(path string, t *Tuning) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tuning file: %w", err)
	}

	var raw struct {
		HeartbeatSeconds   float64 `yaml:"heartbeat_seconds"`
		SecondsPerPage     float64 `yaml:"seconds_per_page"`
		PartitionThreshold int     `yaml:"partition_threshold"`
		PartitionRangeSize int     `yaml:"partition_range_size"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse tuning file: %w", err)
	}

	if raw.HeartbeatSeconds > 0 {
		t.HeartbeatInterval = time.Duration(raw.HeartbeatSeconds * float64(time.Second))
	}
	if raw.SecondsPerPage > 0 {
		t.SecondsPerPage = raw.SecondsPerPage
	}
	if raw.PartitionThreshold > 0 {
		t.PartitionThreshold = raw.PartitionThreshold
	}
	if raw.PartitionRangeSize > 0 {
		t.PartitionRangeSize = raw.PartitionRangeSize
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
