// Package config loads, normalizes, and validates Curio configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CURIO_AUTOFILL_API_KEY. A dotenv file next to the config file is read as a
// lower-priority source for those variables so API keys can stay out of the
// TOML file.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
