package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/drover/internal/artifacts"
	"github.com/mmr-tortoise/drover/internal/git"
	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/semver"
)

// PrepareOptions configures the prepare-branch stage.
type PrepareOptions struct {
	// Push publishes the prepared branch when it carries commits the
	// remote does not have.
	Push bool

	// NoStash refuses to auto-stash: a dirty package is skipped instead.
	NoStash bool

	// StashLabel overrides the label of the transaction's stash entry.
	// Empty means "drover-auto-<branch>".
	StashLabel string

	// KeepStash retains the stash entry even after a clean pop.
	KeepStash bool

	// FallbackHead uses the remote's default branch when the configured
	// base branch does not exist on the remote.
	FallbackHead bool

	// FallbackLocal falls back to the local base branch as a last
	// resort.
	FallbackLocal bool
}

// PrepareBranch readies the working branch in every participating
// package: fetch, checkout (stash-guarded when the tree is dirty),
// fast-forward, upstream tracking, and an optional push.
func (c *Coordinator) PrepareBranch(opts PrepareOptions) ([]model.PackageOutcome, error) {
	label := opts.StashLabel
	if label == "" {
		label = "drover-auto-" + c.cfg.Branch
	}

	return c.eachPackage(true, func(pkg model.PackageUnit) (model.PackageOutcome, error) {
		out := model.PackageOutcome{Name: pkg.Name}

		if _, ok := c.ops.RemoteURL(pkg.Path, c.cfg.Remote); !ok {
			out.Skipped = true
			out.Reason = fmt.Sprintf("remote %q not configured", c.cfg.Remote)
			return out, nil
		}

		if err := c.ops.Fetch(pkg.Path, c.cfg.Remote); err != nil {
			return out, err
		}

		branch, remote := c.cfg.Branch, c.cfg.Remote
		remoteExists := c.ops.RemoteBranchExists(pkg.Path, remote, branch)
		localExists := c.ops.LocalBranchExists(pkg.Path, branch)

		switch {
		case remoteExists:
			// Branch already published: check it out and try to catch
			// up. Divergence is a warning for the operator, never an
			// automatic merge or rebase.
			start := ""
			if !localExists {
				start = remote + "/" + branch
			}
			if err := c.ops.CheckoutBranch(pkg.Path, branch, start); err != nil {
				return out, err
			}
			if _, err := c.ops.FastForward(pkg.Path, remote+"/"+branch); err != nil {
				if !errors.Is(err, model.ErrDivergentHistory) {
					return out, err
				}
				c.log.Warnw("divergent history", "package", pkg.Name, "branch", branch)
				out.Reason = "divergent history — manual rebase required"
			}

		default:
			startRef, err := c.resolveStartRef(pkg, opts)
			if err != nil {
				return out, err
			}

			dirty, err := c.ops.HasUncommittedChanges(pkg.Path)
			if err != nil {
				return out, err
			}
			if dirty && opts.NoStash {
				out.Skipped = true
				out.Reason = "uncommitted changes present and auto-stash disabled"
				return out, nil
			}

			stash, err := c.ops.BeginStash(pkg.Path, git.StashOptions{
				Enabled:          dirty,
				IncludeUntracked: true,
				Label:            label,
				Keep:             opts.KeepStash,
			})
			if err != nil {
				return out, err
			}

			checkoutErr := c.ops.CheckoutBranch(pkg.Path, branch, startRef)

			// The pop must run regardless of how the checkout went.
			state, stashErr := stash.End()
			out.Stash = state

			if checkoutErr != nil {
				return out, checkoutErr
			}
			if stashErr != nil {
				return out, stashErr
			}
		}

		if err := c.ops.EnsureTracking(pkg.Path, branch, remote); err != nil {
			return out, err
		}

		if opts.Push {
			toPush, err := c.ops.HasCommitsToPush(pkg.Path, remote)
			if err != nil {
				return out, err
			}
			if toPush {
				if err := c.ops.Push(pkg.Path, remote); err != nil {
					return out, err
				}
				out.PushDone = true
			}
		}

		status, err := c.ops.AnalyzeStatus(pkg.Path, branch, remote)
		if err != nil {
			return out, err
		}
		out.Status = status
		return out, nil
	})
}

// resolveStartRef picks the ref a fresh working branch starts from:
// the remote base branch, then the remote's default branch, then the
// local base branch.
func (c *Coordinator) resolveStartRef(pkg model.PackageUnit, opts PrepareOptions) (string, error) {
	base, remote := c.cfg.BaseBranch, c.cfg.Remote

	if c.ops.RemoteBranchExists(pkg.Path, remote, base) {
		return remote + "/" + base, nil
	}
	if opts.FallbackHead {
		if def, ok := c.ops.DefaultRemoteBranch(pkg.Path, remote); ok {
			c.log.Infow("base branch absent on remote, using default branch",
				"package", pkg.Name, "base", base, "default", def)
			return remote + "/" + def, nil
		}
	}
	if opts.FallbackLocal && c.ops.LocalBranchExists(pkg.Path, base) {
		return base, nil
	}
	return base, nil
}

// CaptureOptions configures the capture-uncommitted stage.
type CaptureOptions struct {
	// Push pushes the package after a commit was created from an
	// authored commit-message draft.
	Push bool
}

// CaptureUncommitted snapshots each dirty package's uncommitted changes
// into its artifact directory and seeds an empty commit-message draft.
// When a draft has already been authored, the changes are committed
// under it.
func (c *Coordinator) CaptureUncommitted(opts CaptureOptions) ([]model.PackageOutcome, error) {
	return c.eachPackage(false, func(pkg model.PackageUnit) (model.PackageOutcome, error) {
		out := model.PackageOutcome{Name: pkg.Name}

		dirty, err := c.ops.HasUncommittedChanges(pkg.Path)
		if err != nil {
			return out, err
		}
		if !dirty {
			out.Skipped = true
			out.Reason = "no uncommitted changes"
			return out, nil
		}

		status, err := c.ops.UncommittedStatus(pkg.Path)
		if err != nil {
			return out, err
		}
		diffStat, err := c.ops.DiffStat(pkg.Path)
		if err != nil {
			return out, err
		}
		fullDiff, err := c.ops.FullDiff(pkg.Path)
		if err != nil {
			return out, err
		}

		sections := []string{
			"# Uncommitted changes (git status --porcelain)\n" + status,
			"# Diff stat (git diff --stat)\n" + diffStat,
		}
		if fullDiff != "" {
			sections = append(sections, "# Full diff (git diff)\n"+fullDiff)
		}
		content := strings.Join(sections, "\n\n") + "\n"

		if c.dryRun {
			c.log.Infof("[dry-run] would write %s/%s", pkg.ChangesDir, c.cfg.UncommittedFile)
		} else {
			if err := c.store.Write(pkg, c.cfg.UncommittedFile, content); err != nil {
				return out, err
			}
			if _, err := c.store.Seed(pkg, c.cfg.CommitMessageFile, ""); err != nil {
				return out, err
			}
		}

		message, err := c.store.Read(pkg, c.cfg.CommitMessageFile)
		if err != nil {
			if !errors.Is(err, model.ErrMissingArtifact) {
				return out, err
			}
			out.Reason = "captured; commit message not authored yet"
			return out, nil
		}

		committed, err := c.ops.CommitAll(pkg.Path, strings.TrimSpace(message))
		if err != nil {
			return out, err
		}
		if committed && opts.Push {
			if err := c.ops.Push(pkg.Path, c.cfg.Remote); err != nil {
				return out, err
			}
			out.PushDone = true
		}
		out.Reason = "captured and committed"

		repoStatus, err := c.currentStatus(pkg)
		if err != nil {
			return out, err
		}
		out.Status = repoStatus
		return out, nil
	})
}

// SinceTagOptions configures the capture-since-tag stage.
type SinceTagOptions struct {
	// FromTag collects history since this tag instead of the most
	// recent one. The tag must exist.
	FromTag string
}

// CaptureSinceTag writes each package's commit log and diff since the
// last release tag and seeds the tag-message draft from the default
// template.
func (c *Coordinator) CaptureSinceTag(opts SinceTagOptions) ([]model.PackageOutcome, error) {
	return c.eachPackage(false, func(pkg model.PackageUnit) (model.PackageOutcome, error) {
		out := model.PackageOutcome{Name: pkg.Name}

		var tag string
		if opts.FromTag != "" {
			if !c.ops.RefExists(pkg.Path, opts.FromTag) {
				out.Skipped = true
				out.Reason = fmt.Sprintf("tag %q not found", opts.FromTag)
				return out, nil
			}
			tag = opts.FromTag
		} else {
			lastTag, _, err := c.ops.LastTag(pkg.Path)
			if err != nil {
				return out, err
			}
			changed, err := c.ops.HasChangesSinceTag(pkg.Path)
			if err != nil {
				return out, err
			}
			if !changed {
				out.Skipped = true
				out.Reason = "no commits since last tag"
				return out, nil
			}
			tag = lastTag
		}

		commitLog, err := c.ops.LogSinceTag(pkg.Path, tag)
		if err != nil {
			return out, err
		}
		diff, err := c.ops.DiffSinceTag(pkg.Path, tag)
		if err != nil {
			return out, err
		}
		if commitLog == "" && diff == "" {
			out.Skipped = true
			out.Reason = "nothing to capture"
			return out, nil
		}

		var sections []string
		if commitLog != "" {
			sections = append(sections, "# Commits since tag\n"+commitLog)
		}
		if diff != "" {
			sections = append(sections, "# Diff since tag\n"+diff)
		}
		content := strings.Join(sections, "\n\n") + "\n"

		if c.dryRun {
			c.log.Infof("[dry-run] would write %s/%s", pkg.ChangesDir, c.cfg.SinceTagFile)
			return out, nil
		}
		if err := c.store.Write(pkg, c.cfg.SinceTagFile, content); err != nil {
			return out, err
		}
		seeded, err := c.store.Seed(pkg, c.cfg.TagMessageFile, artifacts.DefaultTagMessageTemplate)
		if err != nil {
			return out, err
		}
		if seeded {
			out.Reason = "captured; tag message draft seeded"
		} else {
			out.Reason = "captured"
		}
		return out, nil
	})
}

// BumpOptions configures the bump-version stage.
type BumpOptions struct {
	Kind model.BumpKind
	Push bool
}

// BumpVersion advances each participating package's manifest version and
// commits the result under the authored tag message. Packages whose tag
// message is missing, empty, or still the seeded template are skipped —
// artifact presence is the coordinator's only approval signal.
func (c *Coordinator) BumpVersion(opts BumpOptions) ([]model.PackageOutcome, error) {
	if !opts.Kind.IsValid() {
		return nil, fmt.Errorf("invalid bump kind %q", opts.Kind)
	}

	return c.eachPackage(true, func(pkg model.PackageUnit) (model.PackageOutcome, error) {
		out := model.PackageOutcome{Name: pkg.Name}

		draft, err := c.store.ReadAuthored(pkg, c.cfg.TagMessageFile, artifacts.DefaultTagMessageTemplate)
		if err != nil {
			if !errors.Is(err, model.ErrMissingArtifact) {
				return out, err
			}
			out.Skipped = true
			out.Reason = "tag message not authored"
			return out, nil
		}

		current, err := c.manifests.ReadVersion(pkg.ManifestPath, c.cfg.ManifestVersionKey)
		if err != nil {
			return out, err
		}
		next, err := semver.BumpString(current, opts.Kind)
		if err != nil {
			return out, err
		}

		message := strings.TrimSpace(artifacts.SubstitutePlaceholders(draft, next, current))

		if c.dryRun {
			c.log.Infof("[dry-run] %s: %s -> %s", pkg.Name, current, next)
		} else if err := c.manifests.WriteVersion(pkg.ManifestPath, c.cfg.ManifestVersionKey, current, next); err != nil {
			return out, err
		}

		if _, err := c.ops.CommitAll(pkg.Path, message); err != nil {
			return out, err
		}
		if opts.Push {
			if err := c.ops.Push(pkg.Path, c.cfg.Remote); err != nil {
				return out, err
			}
			out.PushDone = true
		}
		out.Reason = fmt.Sprintf("%s -> %s", current, next)
		return out, nil
	})
}

// TagOptions configures the create-tag stage.
type TagOptions struct {
	Push bool
}

// CreateTag places an annotated tag named <prefix><version> on each
// participating package's release commit. An existing tag means the
// stage already ran for this version and the package is skipped — this
// check is what makes re-running after a partial failure safe, since
// tag creation itself is not idempotent.
func (c *Coordinator) CreateTag(opts TagOptions) ([]model.PackageOutcome, error) {
	return c.eachPackage(true, func(pkg model.PackageUnit) (model.PackageOutcome, error) {
		out := model.PackageOutcome{Name: pkg.Name}

		version, err := c.manifests.ReadVersion(pkg.ManifestPath, c.cfg.ManifestVersionKey)
		if err != nil {
			return out, err
		}
		tagName := c.cfg.TagPrefix + version

		exists, err := c.ops.TagExists(pkg.Path, tagName)
		if err != nil {
			return out, err
		}
		if exists {
			out.Skipped = true
			out.Reason = fmt.Sprintf("tag %s already exists", tagName)
			return out, nil
		}

		message, err := c.ops.LastCommitMessage(pkg.Path)
		if err != nil {
			return out, err
		}
		if strings.TrimSpace(message) == "" {
			message = "Release " + tagName
		}

		if err := c.ops.CreateAnnotatedTag(pkg.Path, tagName, strings.TrimSpace(message)); err != nil {
			return out, err
		}
		if opts.Push {
			if err := c.ops.PushRef(pkg.Path, c.cfg.Remote, tagName); err != nil {
				return out, err
			}
			out.PushDone = true
		}
		out.Reason = "tagged " + tagName
		return out, nil
	})
}

// PublishOptions configures the publish stage.
type PublishOptions struct {
	// Push sends the branch, the release tag, and the dev-cycle commit
	// to the remote. Without it the stage still opens the next
	// development cycle locally.
	Push bool
}

// Publish pushes each package's release and opens the next development
// cycle: the manifest moves to the successor dev version and the change
// is committed so the working branch immediately reflects in-progress
// state.
func (c *Coordinator) Publish(opts PublishOptions) ([]model.PackageOutcome, error) {
	return c.eachPackage(true, func(pkg model.PackageUnit) (model.PackageOutcome, error) {
		out := model.PackageOutcome{Name: pkg.Name}

		current, err := c.manifests.ReadVersion(pkg.ManifestPath, c.cfg.ManifestVersionKey)
		if err != nil {
			return out, err
		}

		if opts.Push {
			if err := c.ops.Push(pkg.Path, c.cfg.Remote); err != nil {
				return out, err
			}
			tagName := c.cfg.TagPrefix + current
			if exists, err := c.ops.TagExists(pkg.Path, tagName); err == nil && exists {
				if err := c.ops.PushRef(pkg.Path, c.cfg.Remote, tagName); err != nil {
					return out, err
				}
			}
			out.PushDone = true
		}

		nextDev, err := semver.NextDevelopmentString(current)
		if err != nil {
			return out, err
		}

		if c.dryRun {
			c.log.Infof("[dry-run] %s: %s -> %s", pkg.Name, current, nextDev)
		} else if err := c.manifests.WriteVersion(pkg.ManifestPath, c.cfg.ManifestVersionKey, current, nextDev); err != nil {
			return out, err
		}

		if _, err := c.ops.CommitAll(pkg.Path, "chore: start "+nextDev+" development"); err != nil {
			return out, err
		}
		if opts.Push {
			if err := c.ops.Push(pkg.Path, c.cfg.Remote); err != nil {
				return out, err
			}
		}

		out.Reason = "next cycle " + nextDev

		status, err := c.currentStatus(pkg)
		if err != nil {
			return out, err
		}
		out.Status = status
		return out, nil
	})
}

// currentStatus analyzes the package against its currently checked-out
// branch.
func (c *Coordinator) currentStatus(pkg model.PackageUnit) (model.RepoStatus, error) {
	branch, err := c.ops.CurrentBranch(pkg.Path)
	if err != nil {
		return model.RepoStatus{}, err
	}
	return c.ops.AnalyzeStatus(pkg.Path, branch, c.cfg.Remote)
}
