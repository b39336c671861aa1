// Package model defines the domain types and value objects shared across
// the drover release pipeline.
//
// This package contains pure data structures with no external dependencies:
// package units discovered from the workspace, per-repository status
// snapshots, stash transaction outcomes, and pipeline stage identifiers.
//
// The package also defines exit codes (ExitCode), a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling,
// and the error taxonomy used by the version-control operation layer.
package model
