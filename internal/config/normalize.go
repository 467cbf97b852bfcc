package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Environment variables consulted for the auto-fill API key, in order.
const (
	envAutofillAPIKey   = "CURIO_AUTOFILL_API_KEY"
	envOpenRouterAPIKey = "OPENROUTER_API_KEY"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAutofill()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(strings.TrimSpace(c.Paths.ExportDir)); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAutofill() {
	for _, key := range []string{envAutofillAPIKey, envOpenRouterAPIKey} {
		if value, ok := c.lookupEnv(key); ok {
			c.Autofill.APIKey = value
			break
		}
	}
	c.Autofill.APIKey = strings.TrimSpace(c.Autofill.APIKey)
	c.Autofill.BaseURL = strings.TrimSpace(c.Autofill.BaseURL)
	if c.Autofill.BaseURL == "" {
		c.Autofill.BaseURL = defaultAutofillBaseURL
	}
	c.Autofill.Model = strings.TrimSpace(c.Autofill.Model)
	if c.Autofill.Model == "" {
		c.Autofill.Model = defaultAutofillModel
	}
	c.Autofill.Referer = strings.TrimSpace(c.Autofill.Referer)
	if c.Autofill.Referer == "" {
		c.Autofill.Referer = defaultAutofillReferer
	}
	c.Autofill.Title = strings.TrimSpace(c.Autofill.Title)
	if c.Autofill.Title == "" {
		c.Autofill.Title = defaultAutofillTitle
	}
	if c.Autofill.TimeoutSeconds == 0 {
		c.Autofill.TimeoutSeconds = defaultAutofillTimeoutSeconds
	}
}

func (c *Config) normalizeExport() {
	c.Export.Product = strings.TrimSpace(c.Export.Product)
	if c.Export.Product == "" {
		c.Export.Product = defaultExportProduct
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	default:
		c.Logging.Level = level
	}
}
