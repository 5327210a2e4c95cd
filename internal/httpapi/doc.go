// Package httpapi serves the JSON HTTP API used by "bizcard serve".
//
// Routes live under /api/v1 and are guarded by an optional bearer token;
// /healthz is always open. Request bodies are validated against embedded
// JSON schemas before they are decoded, and errors carry the status code
// implied by their services marker.
package httpapi
