package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"curio/internal/config"
)

func clearAutofillEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CURIO_AUTOFILL_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearAutofillEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "curio", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "curio")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.ExportDir != filepath.Join(tempHome, "curio-exports") {
		t.Fatalf("unexpected export dir: %q", cfg.Paths.ExportDir)
	}
	if cfg.Paths.LogDir != filepath.Join(wantData, "logs") {
		t.Fatalf("expected log dir under data dir, got %q", cfg.Paths.LogDir)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "curio.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if cfg.Export.Product != "curio" || !cfg.Export.Pretty {
		t.Fatalf("unexpected export defaults %+v", cfg.Export)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
	if cfg.Autofill.APIKey != "" || cfg.AutofillReady() {
		t.Fatal("expected auto-fill to lack credentials by default")
	}
	if cfg.Autofill.BaseURL != config.Default().Autofill.BaseURL {
		t.Fatalf("unexpected auto-fill base url: %q", cfg.Autofill.BaseURL)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearAutofillEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "curio.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Autofill struct {
			APIKey         string `toml:"api_key"`
			Model          string `toml:"model"`
			TimeoutSeconds int    `toml:"timeout_seconds"`
		} `toml:"autofill"`
		Logging struct {
			Format string `toml:"format"`
			Level  string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "state")
	custom.Autofill.APIKey = "abc123"
	custom.Autofill.Model = "example/model"
	custom.Autofill.TimeoutSeconds = 5
	custom.Logging.Format = "JSON"
	custom.Logging.Level = "warning"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "state") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempDir, "state", "logs") {
		t.Fatalf("unexpected log dir %q", cfg.Paths.LogDir)
	}
	if cfg.Autofill.APIKey != "abc123" || !cfg.AutofillReady() {
		t.Fatalf("expected auto-fill key from file, got %q", cfg.Autofill.APIKey)
	}
	if cfg.Autofill.Model != "example/model" || cfg.Autofill.TimeoutSeconds != 5 {
		t.Fatalf("unexpected auto-fill settings %+v", cfg.Autofill)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "warn" {
		t.Fatalf("expected normalized logging settings, got %+v", cfg.Logging)
	}
}

func TestEnvVarOverridesConfigFileForAPIKey(t *testing.T) {
	clearAutofillEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "curio.toml")
	if err := os.WriteFile(configPath, []byte("[autofill]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("OPENROUTER_API_KEY", "env-openrouter")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Autofill.APIKey != "env-openrouter" {
		t.Errorf("expected key from OPENROUTER_API_KEY, got %q", cfg.Autofill.APIKey)
	}

	t.Setenv("CURIO_AUTOFILL_API_KEY", "env-curio")
	cfg, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Autofill.APIKey != "env-curio" {
		t.Errorf("expected CURIO_AUTOFILL_API_KEY to take precedence, got %q", cfg.Autofill.APIKey)
	}
}

func TestDotenvSuppliesAPIKeyWithoutOverridingEnvironment(t *testing.T) {
	clearAutofillEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[autofill]\nenabled = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envFile := "# local secrets\nCURIO_AUTOFILL_API_KEY=dotenv-key\n"
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte(envFile), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Autofill.APIKey != "dotenv-key" {
		t.Fatalf("expected key from .env, got %q", cfg.Autofill.APIKey)
	}
	if os.Getenv("CURIO_AUTOFILL_API_KEY") != "" {
		t.Fatal("dotenv values must not leak into the process environment")
	}

	t.Setenv("CURIO_AUTOFILL_API_KEY", "real-env")
	cfg, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Autofill.APIKey != "real-env" {
		t.Fatalf("expected process environment to win, got %q", cfg.Autofill.APIKey)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	clearAutofillEnv(t)
	configPath := filepath.Join(t.TempDir(), "curio.toml")
	if err := os.WriteFile(configPath, []byte("[paths\ndata_dir = 1"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_autofill_api_key_here") {
		t.Fatalf("sample config missing placeholder key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "curio") {
		t.Fatalf("expected data dir to contain curio, got %q", cfg.Paths.DataDir)
	}
	if cfg.Export.Product != "curio" || !cfg.Export.Pretty {
		t.Fatalf("unexpected sample export settings %+v", cfg.Export)
	}
	cfg.Autofill.APIKey = "your_autofill_api_key_here"
	if cfg.AutofillReady() {
		t.Fatal("placeholder key should not enable auto-fill")
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"negative timeout", func(c *config.Config) { c.Autofill.TimeoutSeconds = -1 }},
		{"bad base url scheme", func(c *config.Config) { c.Autofill.BaseURL = "ftp://example.com" }},
		{"base url without host", func(c *config.Config) { c.Autofill.BaseURL = "https://" }},
		{"product with separator", func(c *config.Config) { c.Export.Product = "a/b" }},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"unknown log level", func(c *config.Config) { c.Logging.Level = "trace" }},
		{"empty data dir", func(c *config.Config) { c.Paths.DataDir = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	cfg.Autofill.Enabled = false
	cfg.Autofill.BaseURL = "not a url"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled auto-fill should skip endpoint checks: %v", err)
	}
	defaults := config.Default()
	if err := defaults.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestExpandPathHandlesTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/collections")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join(home, "collections") {
		t.Fatalf("unexpected expansion %q", got)
	}
	if got, _ := config.ExpandPath(""); got != "" {
		t.Fatalf("expected empty path to stay empty, got %q", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.LogDir = filepath.Join(root, "data", "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
