// Package main is the entry point for the drover CLI.
//
// The binary coordinates a multi-stage release workflow across the
// packages of a git workspace. All functionality lives in the
// internal/cli package, which defines the cobra commands.
package main

import (
	"github.com/mmr-tortoise/drover/internal/cli"
)

// version, commit, and date are set by the release build via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
