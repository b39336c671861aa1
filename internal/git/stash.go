package git

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mmr-tortoise/drover/internal/model"
)

// StashOptions configures one stash transaction.
type StashOptions struct {
	// Enabled turns the transaction on. When false, or when the working
	// tree is already clean, Begin returns a no-op transaction.
	Enabled bool

	// IncludeUntracked stashes untracked files as well. When false the
	// staged index is kept in place instead (--keep-index).
	IncludeUntracked bool

	// Label names the stash entry so a kept stash can be identified for
	// manual resolution, and so the clean-pop drop removes the right
	// entry.
	Label string

	// Keep retains the stash entry even after a conflict-free pop.
	Keep bool
}

// Stash is a scoped transaction around a risky working-tree operation
// (typically a branch checkout). Begin shelves uncommitted work; End
// pops it back unconditionally and classifies the outcome. Callers must
// defer End so the pop runs on every exit path — the original changes
// and the risky operation's own changes must never stay ambiguously
// mixed in the tree.
type Stash struct {
	ops    *Ops
	dir    string
	opts   StashOptions
	log    *zap.SugaredLogger
	active bool
	ended  bool
	state  model.StashState
}

// BeginStash opens a stash transaction on dir. When the transaction is
// disabled or the tree is clean it is a no-op whose End reports
// StashNone.
func (o *Ops) BeginStash(dir string, opts StashOptions) (*Stash, error) {
	s := &Stash{ops: o, dir: dir, opts: opts, log: o.log, state: model.StashNone}
	if !opts.Enabled {
		return s, nil
	}

	dirty, err := o.HasUncommittedChanges(dir)
	if err != nil {
		return nil, err
	}
	if !dirty {
		return s, nil
	}

	args := []string{"stash", "push"}
	if opts.IncludeUntracked {
		args = append(args, "--include-untracked")
	} else {
		args = append(args, "--keep-index")
	}
	args = append(args, "-m", opts.Label)

	res, err := o.run.Mutate(dir, args...)
	if err != nil {
		return nil, err
	}
	if !res.Ok() {
		return nil, vcsErr(res)
	}
	s.active = true
	return s, nil
}

// End pops the stash, classifies the outcome, and drops the labeled
// entry after a clean pop unless retention was requested. It is safe to
// call more than once; only the first call acts.
func (s *Stash) End() (model.StashState, error) {
	if s.ended {
		return s.state, nil
	}
	s.ended = true

	if !s.active {
		s.state = model.StashNone
		return s.state, nil
	}

	// Restore unconditionally. A conflicted restore still puts the
	// shelved content into the tree; conflicts are detected afterwards.
	// Requested retention uses apply instead of pop, since a clean pop
	// drops the entry on git's side.
	restore := "pop"
	if s.opts.Keep {
		restore = "apply"
	}
	popRes, err := s.ops.run.Mutate(s.dir, "stash", restore)
	if err != nil {
		return model.StashKept, err
	}

	conflicted, err := s.hasUnmergedPaths()
	if err != nil {
		return model.StashKept, err
	}

	if !popRes.Ok() && !conflicted {
		// The pop refused without applying anything (e.g. untracked
		// files in the way). The entry still holds the shelved work and
		// must not be dropped.
		s.log.Warnw("stash pop failed, entry kept",
			"dir", s.dir, "label", s.opts.Label,
			"output", strings.TrimSpace(popRes.Combined()))
		s.state = model.StashKept
		return s.state, nil
	}

	if conflicted || s.opts.Keep {
		// The popped entry stays in the stash list for manual
		// resolution, identifiable by its label.
		if conflicted {
			s.log.Warnw("stash pop left conflicts", "dir", s.dir, "label", s.opts.Label)
		}
		s.state = model.StashKept
		return s.state, nil
	}

	if err := s.dropLabeled(); err != nil {
		return model.StashKept, err
	}
	s.state = model.StashRestored
	return s.state, nil
}

// hasUnmergedPaths reports whether the pop left unmerged entries.
func (s *Stash) hasUnmergedPaths() (bool, error) {
	res, err := s.ops.run.Run(s.dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return false, err
	}
	return res.Out() != "", nil
}

// dropLabeled removes the most recent stash entry carrying our label.
// After a clean pop git usually removes the entry itself; a leftover
// labeled entry at the top of the list means the pop kept it (some git
// versions do on untracked-file stashes), so it is dropped explicitly.
func (s *Stash) dropLabeled() error {
	res, err := s.ops.run.Run(s.dir, "stash", "list")
	if err != nil {
		return err
	}
	if !res.Ok() || res.Out() == "" {
		return nil
	}
	first := strings.SplitN(res.Out(), "\n", 2)[0]
	if !strings.Contains(first, s.opts.Label) {
		return nil
	}
	ref, _, ok := strings.Cut(first, ":")
	if !ok {
		return nil
	}
	drop, err := s.ops.run.Mutate(s.dir, "stash", "drop", ref)
	if err != nil {
		return err
	}
	if !drop.Ok() {
		return vcsErr(drop)
	}
	return nil
}
