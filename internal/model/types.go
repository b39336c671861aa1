package model

import (
	"fmt"
	"strings"
)

// PackageUnit identifies one release participant discovered in the
// workspace. Units are enumerated once per pipeline run and handed
// read-only to every stage; no stage mutates a unit.
type PackageUnit struct {
	// Name is the package directory name, used in reports and logs.
	Name string

	// Path is the absolute path to the package repository root.
	Path string

	// ChangesDir is the per-package change-artifact directory
	// (uncommitted diff snapshot, since-tag diff, message drafts).
	ChangesDir string

	// ManifestPath is the package manifest holding the version field,
	// the single source of truth for the package's version.
	ManifestPath string
}

func (p PackageUnit) String() string {
	return fmt.Sprintf("<Package %s at %s>", p.Name, p.Path)
}

// RepoStatus is a per-package snapshot of how the local branch relates
// to its remote counterpart. It is recomputed on demand and never cached
// across pipeline stages, because the working tree may have changed
// between calls.
type RepoStatus struct {
	// Ahead is the number of local commits not on the remote branch.
	Ahead int

	// Behind is the number of remote commits not present locally.
	Behind int

	// Uncommitted reports whether the working tree has uncommitted
	// changes (including untracked files).
	Uncommitted bool
}

// Summary renders the status in the compact form used by report lines,
// e.g. "ahead:2, uncommitted" or "ok" when fully in sync.
func (s RepoStatus) Summary() string {
	var parts []string
	if s.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("ahead:%d", s.Ahead))
	}
	if s.Behind > 0 {
		parts = append(parts, fmt.Sprintf("behind:%d", s.Behind))
	}
	if s.Uncommitted {
		parts = append(parts, "uncommitted")
	}
	if len(parts) == 0 {
		return "ok"
	}
	return strings.Join(parts, ", ")
}

// StashState is the tri-state outcome of a stash transaction.
type StashState int

const (
	// StashNone means no stash was needed: the transaction was disabled
	// or the working tree was already clean.
	StashNone StashState = iota

	// StashRestored means the stash popped without conflicts and the
	// stash entry was dropped.
	StashRestored

	// StashKept means the stash popped with conflicts, or the caller
	// requested retention — the stash entry remains in the repository
	// for manual resolution, identifiable by its label.
	StashKept
)

func (s StashState) String() string {
	switch s {
	case StashNone:
		return "none"
	case StashRestored:
		return "cleanly-restored"
	case StashKept:
		return "kept"
	default:
		return fmt.Sprintf("StashState(%d)", int(s))
	}
}

// BumpKind selects which component of a version to increment.
type BumpKind string

const (
	BumpPatch BumpKind = "patch"
	BumpMinor BumpKind = "minor"
	BumpMajor BumpKind = "major"
	BumpDev   BumpKind = "dev"
)

// IsValid checks whether the BumpKind value is one of the predefined kinds.
func (k BumpKind) IsValid() bool {
	switch k {
	case BumpPatch, BumpMinor, BumpMajor, BumpDev:
		return true
	default:
		return false
	}
}

// ParseBumpKind converts a string to a BumpKind.
// Returns an error if the string does not match any valid kind.
func ParseBumpKind(s string) (BumpKind, error) {
	kind := BumpKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid bump kind: %q (valid: patch, minor, major, dev)", s)
	}
	return kind, nil
}

// Stage identifies one of the six ordered pipeline stages.
type Stage string

const (
	StagePrepareBranch      Stage = "prepare-branch"
	StageCaptureUncommitted Stage = "capture-uncommitted"
	StageCaptureSinceTag    Stage = "capture-since-tag"
	StageBumpVersion        Stage = "bump-version"
	StageCreateTag          Stage = "create-tag"
	StagePublish            Stage = "publish"
)

// Stages lists the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{
		StagePrepareBranch,
		StageCaptureUncommitted,
		StageCaptureSinceTag,
		StageBumpVersion,
		StageCreateTag,
		StagePublish,
	}
}

// PackageOutcome aggregates what happened to one package during a stage
// or a full pipeline run. Skipped and Err are mutually exclusive with a
// normal completion.
type PackageOutcome struct {
	Name string

	// Skipped is set when a stage refused to advance the package
	// (missing artifact, existing tag, clean tree) rather than failing.
	Skipped bool

	// Reason explains a skip or annotates a completion ("tag exists",
	// "pushed", "local only").
	Reason string

	// Stash records the outcome of the stash transaction, if one ran.
	Stash StashState

	// Status is the reconciled repository status after the stage.
	Status RepoStatus

	// PushDone reports whether a push was actually performed.
	PushDone bool

	// Err is the per-package failure, isolated by the coordinator so
	// sibling packages still run.
	Err error
}
