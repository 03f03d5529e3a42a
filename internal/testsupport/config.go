package testsupport

import (
	"path/filepath"
	"testing"

	"clipstudio/internal/config"
)

// TestToken is the bearer token the mock backend accepts.
const TestToken = "test-token"

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Backend.AccessToken = TestToken
	cfg.Workflow.DebounceMS = 10
	cfg.Workflow.JobWatchdogSecs = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithBackendURL points the config at a live (usually mock) backend.
func WithBackendURL(baseURL, wsURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Backend.BaseURL = baseURL
		cfg.Backend.WebSocketURL = wsURL
	}
}

// WithRegenerateQuota overrides the suggestion regenerate quota.
func WithRegenerateQuota(quota int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.RegenerateQuota = quota
	}
}
