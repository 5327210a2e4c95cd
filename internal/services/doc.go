// Package services defines shared utilities consumed by the scan pipeline,
// the record reconciler and the HTTP API.
//
// Key responsibilities:
//   - Context helpers that stamp card IDs, operation names, and request
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that let callers map
//     failures onto CLI exit messages and HTTP status codes.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform between the CLI and the API server.
package services
