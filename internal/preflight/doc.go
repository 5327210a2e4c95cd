// Package preflight provides readiness checks for the directories, binaries,
// and services bizcard depends on.
//
// "bizcard status" prints every result; "bizcard serve" refuses to start
// when a required check fails. Checks for disabled features are skipped.
package preflight
