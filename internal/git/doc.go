// Package git is the version-control operation layer for the release
// pipeline.
//
// It shells out to the `git` executable rather than using a Go Git
// library: the pipeline needs stash, describe, and upstream semantics
// that exactly match what an operator would get running git by hand, and
// go-git's coverage of those corners is limited.
//
// The package is split into four pieces:
//
//   - Runner executes one git command and reports a structured Result
//     without interpreting exit codes. Many non-zero exits ("nothing to
//     commit", absent tag) are not failures in context, so
//     interpretation belongs to the caller.
//   - Ops wraps Runner with the failure-aware operations the pipeline
//     stages call: idempotent commit, push with upstream fallback,
//     ahead/behind computation, diff and log extraction.
//   - Stash is a scoped transaction that shelves uncommitted work before
//     a risky operation and guarantees restoration afterward.
//   - AnalyzeStatus aggregates ahead/behind counts and the dirty flag
//     into one reconciled status record per package.
//
// Benign-failure detection pattern-matches git's diagnostic wording and
// is therefore tool-version-sensitive. All such matching is concentrated
// in classify.go so future wording changes touch one place only.
package git
