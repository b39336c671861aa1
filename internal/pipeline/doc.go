// Package pipeline drives the six-stage release sequence over the
// workspace's package set.
//
// Stage order: prepare-branch, capture-uncommitted, capture-since-tag,
// bump-version, create-tag, publish. The coordinator does not decide
// whether a human has approved a stage — it only refuses to advance a
// package past a stage whose required artifact is missing, empty, or
// still the seeded template.
//
// Per-package failures are isolated: an error in one package is
// recorded in its outcome and the coordinator proceeds to the next
// package. Packages are processed strictly one after another — the
// external git process and the per-repository stash stack make
// concurrent mutation of a working tree unsafe, and each package is an
// isolated repository so parallelism buys nothing.
//
// Every stage is idempotent at its boundary (tag-existence checks,
// "nothing to commit" detection, seed-only artifact writes), so a run
// interrupted mid-package is resolved by simply re-running.
package pipeline
