package testsupport

import (
	"path/filepath"
	"testing"

	"dirserve/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SeedDir = filepath.Join(base, "seed")
	cfgVal.Cache.Enabled = false
	cfgVal.Watcher.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCache enables the entry cache on the test config.
func WithCache(ttlSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = true
		b.cfg.Cache.TTLSeconds = ttlSeconds
	}
}

// WithWatcher enables the seed directory watcher on the test config.
func WithWatcher() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watcher.Enabled = true
	}
}

// WithStopPolicy overrides the lifecycle poll parameters on the test config.
func WithStopPolicy(intervalMs, maxAttempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.StopPollIntervalMs = intervalMs
		b.cfg.Daemon.StopMaxAttempts = maxAttempts
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
