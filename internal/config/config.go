// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"

	"github.com/okian/skillsift/internal/domain/fusion"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// OntologyPath points to an optional YAML skill ontology file. Empty
	// means the built-in ontology.
	OntologyPath string `koanf:"ontology_path"`

	// StorePath points to the experiment snapshot file. Empty means
	// in-memory state only.
	StorePath string `koanf:"store_path"`

	// ObservationQueueSize bounds the in-memory observation queue.
	ObservationQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of observation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the observation deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ExtractorTimeoutMS bounds each individual extractor call.
	ExtractorTimeoutMS int `koanf:"extractor_timeout_ms"`

	// Ensemble holds the fusion weights and thresholds.
	Ensemble fusion.Config `koanf:"ensemble"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		ObservationQueueSize: 10_000,
		WorkerCount:          runtime.NumCPU() * 2,
		DedupeSize:           50_000,
		ExtractorTimeoutMS:   5_000,
		Ensemble:             fusion.DefaultConfig(),
	}
}
