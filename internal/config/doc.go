// Package config loads, normalizes, and validates bizcard configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file from the working directory,
// and honours environment fallbacks such as BIZCARD_DB_URL and
// GOOGLE_APPLICATION_CREDENTIALS. The Config type centralizes every knob the
// CLI and API server need so storage, OCR, and classifier settings are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
