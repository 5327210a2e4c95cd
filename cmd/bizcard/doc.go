// Package main hosts the bizcard CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into calls against the
// internal packages: scanning card images, classifying raw text, managing
// stored cards, exporting them, and serving the HTTP API. Configuration
// resolution and logger setup happen once in commandContext so subcommands
// only deal with flags and output.
//
// Keep this package thin. New behavior belongs in internal packages first and
// is surfaced here through a command or flag.
package main
