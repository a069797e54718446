package testsupport

import (
	"path/filepath"
	"testing"

	"hopper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Application directories point at a single empty "applications" directory
// under the temp root unless overridden.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Path = filepath.Join(base, "config", "config.toml")
	cfgVal.Paths = config.Paths{
		DataDir:     filepath.Join(base, "data"),
		DBPath:      filepath.Join(base, "data", "apps.db"),
		HistoryPath: filepath.Join(base, "data", "history.db"),
		SocketPath:  filepath.Join(base, "hopper.sock"),
		LogDir:      filepath.Join(base, "logs"),
	}
	cfgVal.Apps.Dirs = []string{filepath.Join(base, "applications")}
	cfgVal.Watch.DebounceMS = 20

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithAppDirs replaces the scanned directories.
func WithAppDirs(dirs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Apps.Dirs = dirs
	}
}

// WithHalfLifeDays overrides the score half-life.
func WithHalfLifeDays(days float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Apps.HalfLifeDays = days
	}
}

// WithTermCmd sets the terminal command used for Terminal=true apps.
func WithTermCmd(cmd string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Apps.TermCmd = cmd
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
