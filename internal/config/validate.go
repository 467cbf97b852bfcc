package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAutofill(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.ExportDir == "" {
		return errors.New("paths.export_dir must be set")
	}
	return nil
}

func (c *Config) validateAutofill() error {
	if c.Autofill.TimeoutSeconds < 0 {
		return errors.New("autofill.timeout_seconds must be positive")
	}
	if !c.Autofill.Enabled {
		return nil
	}
	parsed, err := url.Parse(c.Autofill.BaseURL)
	if err != nil {
		return fmt.Errorf("autofill.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("autofill.base_url must use http or https, got %q", c.Autofill.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("autofill.base_url must include a host, got %q", c.Autofill.BaseURL)
	}
	return nil
}

func (c *Config) validateExport() error {
	if strings.ContainsAny(c.Export.Product, `/\`) {
		return fmt.Errorf("export.product must not contain path separators, got %q", c.Export.Product)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// sampleAPIKey is the placeholder written by CreateSample.
const sampleAPIKey = "your_autofill_api_key_here"

// AutofillReady reports whether auto-fill is enabled and has credentials.
func (c *Config) AutofillReady() bool {
	return c.Autofill.Enabled && c.Autofill.APIKey != "" && c.Autofill.APIKey != sampleAPIKey
}
