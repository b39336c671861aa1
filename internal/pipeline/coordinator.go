package pipeline

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mmr-tortoise/drover/internal/artifacts"
	"github.com/mmr-tortoise/drover/internal/config"
	"github.com/mmr-tortoise/drover/internal/git"
	"github.com/mmr-tortoise/drover/internal/manifest"
	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/workspace"
)

// Coordinator wires the collaborators one pipeline run needs. All
// dependencies are injected at construction; the coordinator holds no
// global state and can be constructed fresh per command invocation.
type Coordinator struct {
	cfg       *config.Settings
	ops       *git.Ops
	manifests *manifest.Store
	store     *artifacts.Store
	enum      *workspace.Enumerator
	log       *zap.SugaredLogger

	// dryRun suppresses artifact and manifest writes. Git mutations are
	// already suppressed by the Runner underneath ops.
	dryRun bool
}

// New constructs a Coordinator.
func New(
	cfg *config.Settings,
	ops *git.Ops,
	manifests *manifest.Store,
	store *artifacts.Store,
	enum *workspace.Enumerator,
	log *zap.SugaredLogger,
	dryRun bool,
) *Coordinator {
	return &Coordinator{
		cfg:       cfg,
		ops:       ops,
		manifests: manifests,
		store:     store,
		enum:      enum,
		log:       log,
		dryRun:    dryRun,
	}
}

// RunOptions configures a full six-stage pipeline run.
type RunOptions struct {
	Bump model.BumpKind
	Push bool

	Prepare PrepareOptions
}

// Run executes every stage in order across the package set. The error
// return is reserved for fatal configuration problems; per-package
// failures live in the outcomes.
func (c *Coordinator) Run(opts RunOptions) (map[model.Stage][]model.PackageOutcome, error) {
	results := make(map[model.Stage][]model.PackageOutcome, 6)

	type step struct {
		stage model.Stage
		run   func() ([]model.PackageOutcome, error)
	}
	prepare := opts.Prepare
	prepare.Push = opts.Push
	steps := []step{
		{model.StagePrepareBranch, func() ([]model.PackageOutcome, error) {
			return c.PrepareBranch(prepare)
		}},
		{model.StageCaptureUncommitted, func() ([]model.PackageOutcome, error) {
			return c.CaptureUncommitted(CaptureOptions{Push: opts.Push})
		}},
		{model.StageCaptureSinceTag, func() ([]model.PackageOutcome, error) {
			return c.CaptureSinceTag(SinceTagOptions{})
		}},
		{model.StageBumpVersion, func() ([]model.PackageOutcome, error) {
			return c.BumpVersion(BumpOptions{Kind: opts.Bump, Push: opts.Push})
		}},
		{model.StageCreateTag, func() ([]model.PackageOutcome, error) {
			return c.CreateTag(TagOptions{Push: opts.Push})
		}},
		{model.StagePublish, func() ([]model.PackageOutcome, error) {
			return c.Publish(PublishOptions{Push: opts.Push})
		}},
	}

	for _, s := range steps {
		outcomes, err := s.run()
		if err != nil {
			return results, err
		}
		results[s.stage] = outcomes
	}
	return results, nil
}

// Status reports the reconciled repository status of every package
// without mutating anything.
func (c *Coordinator) Status() ([]model.PackageOutcome, error) {
	return c.eachPackage(false, func(pkg model.PackageUnit) (model.PackageOutcome, error) {
		out := model.PackageOutcome{Name: pkg.Name}
		branch, err := c.ops.CurrentBranch(pkg.Path)
		if err != nil {
			return out, err
		}
		status, err := c.ops.AnalyzeStatus(pkg.Path, branch, c.cfg.Remote)
		if err != nil {
			return out, err
		}
		out.Status = status
		out.Reason = branch
		return out, nil
	})
}

// Clear removes every package's change-artifact directory, resetting
// the workspace for the next release cycle.
func (c *Coordinator) Clear() ([]model.PackageOutcome, error) {
	return c.eachPackage(true, func(pkg model.PackageUnit) (model.PackageOutcome, error) {
		out := model.PackageOutcome{Name: pkg.Name}
		if c.dryRun {
			c.log.Infof("[dry-run] would remove %s", pkg.ChangesDir)
			out.Reason = "would clear artifacts"
			return out, nil
		}
		if err := c.store.Clear(pkg); err != nil {
			return out, err
		}
		out.Reason = "artifacts cleared"
		return out, nil
	})
}

// eachPackage enumerates the workspace and applies fn to every unit,
// isolating per-package failures into the outcome slice.
func (c *Coordinator) eachPackage(
	onlyParticipating bool,
	fn func(model.PackageUnit) (model.PackageOutcome, error),
) ([]model.PackageOutcome, error) {
	units, err := c.enum.List(onlyParticipating)
	if err != nil {
		return nil, err
	}

	outcomes := make([]model.PackageOutcome, 0, len(units))
	for _, pkg := range units {
		out, err := fn(pkg)
		if err != nil {
			c.log.Errorw("package failed", "package", pkg.Name, "error", err)
			out.Name = pkg.Name
			out.Err = err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Summary condenses a slice of outcomes into the aggregate counts
// reported after every stage.
type Summary struct {
	Processed int
	Skipped   int
	Failed    int
	Err       error
}

// Summarize counts outcomes. Failed packages are excluded from the
// processed count; their errors are aggregated into Err.
func Summarize(outcomes []model.PackageOutcome) Summary {
	var s Summary
	for _, out := range outcomes {
		switch {
		case out.Err != nil:
			s.Failed++
			s.Err = multierr.Append(s.Err, out.Err)
		case out.Skipped:
			s.Skipped++
		default:
			s.Processed++
		}
	}
	return s
}
