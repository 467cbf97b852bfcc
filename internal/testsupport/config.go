package testsupport

import (
	"path/filepath"
	"testing"

	"curio/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Auto-fill is disabled unless WithAutofill is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.ExportDir = filepath.Join(base, "exports")
	cfgVal.Paths.LogDir = filepath.Join(base, "data", "logs")
	cfgVal.Autofill.Enabled = false
	cfgVal.Autofill.APIKey = ""

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

// WithAutofill enables auto-fill against baseURL with a test key.
func WithAutofill(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Autofill.Enabled = true
		b.cfg.Autofill.APIKey = "test-key"
		b.cfg.Autofill.BaseURL = baseURL
		b.cfg.Autofill.TimeoutSeconds = 5
	}
}

// WithExportProduct overrides the export file name prefix.
func WithExportProduct(product string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.Product = product
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
