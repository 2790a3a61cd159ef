// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/cstroie/XRayVision-sub000/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ImagesDir = filepath.Join(base, "images")
	cfg.Paths.IncomingDir = filepath.Join(base, "incoming")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Dashboard.Bind = "127.0.0.1:0"
	cfg.AI.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithHistorySize overrides the dashboard history bound on the test config.
func WithHistorySize(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dashboard.HistorySize = n
	}
}

// WithAIBaseURL points the relay client at a test server.
func WithAIBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.AI.BaseURL = url
	}
}
