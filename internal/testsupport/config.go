package testsupport

import (
	"path/filepath"
	"testing"

	"studiorouter/internal/config"
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
	cfgVal.Studios.DefinitionsDir = filepath.Join(base, "studios")
	cfgVal.Studios.SeedOnStart = false
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.Logging.Format = "console"
	cfgVal.Logging.Level = "debug"

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

// WithAPIToken sets the bearer token required by the daemon API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// WithDefinitionsDir points studio definitions at dir.
func WithDefinitionsDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Studios.DefinitionsDir = dir
	}
}

// WithSeedOnStart toggles definition seeding at daemon start.
func WithSeedOnStart(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Studios.SeedOnStart = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
