package server

import (
	"time"

	"github.com/panevka/nhsmongifyer/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address, host:port
	Addr string

	// PathPrefix is prepended to every API route
	PathPrefix string

	// OutputDir is the root of the harvested partitions
	OutputDir string

	// HTTP timeouts
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// MetricsEnabled exposes /metrics
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              constants.DefaultServeAddr,
		PathPrefix:        "/api/v1",
		OutputDir:         constants.DefaultOutputDir,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MetricsEnabled:    true,
	}
}
