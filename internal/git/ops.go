package git

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mmr-tortoise/drover/internal/model"
)

// Ops provides the failure-aware git operations the pipeline stages
// call. Every method receives the repository directory as a parameter;
// the struct itself holds only the Runner and logger, so one Ops value
// serves every package in the workspace.
type Ops struct {
	run *Runner
	log *zap.SugaredLogger
}

// NewOps constructs an Ops layered on the given Runner.
func NewOps(run *Runner, log *zap.SugaredLogger) *Ops {
	return &Ops{run: run, log: log}
}

// vcsErr converts a non-benign failed Result into a *model.VCSError.
func vcsErr(res Result) error {
	out := strings.TrimSpace(res.Stderr)
	if out == "" {
		out = strings.TrimSpace(res.Stdout)
	}
	return &model.VCSError{Args: res.Args, Dir: res.Dir, Output: out}
}

// --- queries ---------------------------------------------------------------

// UncommittedStatus returns `git status --porcelain` output for the
// working tree (modified, staged, and untracked files).
func (o *Ops) UncommittedStatus(dir string) (string, error) {
	res, err := o.run.Run(dir, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", vcsErr(res)
	}
	return res.Out(), nil
}

// HasUncommittedChanges reports whether the working tree is dirty,
// including untracked files.
func (o *Ops) HasUncommittedChanges(dir string) (bool, error) {
	status, err := o.UncommittedStatus(dir)
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// DiffStat returns `git diff --stat` for the working tree.
func (o *Ops) DiffStat(dir string) (string, error) {
	return o.query(dir, "diff", "--stat")
}

// FullDiff returns the full working-tree diff text.
func (o *Ops) FullDiff(dir string) (string, error) {
	return o.query(dir, "diff")
}

// LastTag returns the most recent tag reachable from HEAD. The absence
// of any tag is a valid state reported as ok=false, not an error.
func (o *Ops) LastTag(dir string) (string, bool, error) {
	res, err := o.run.Run(dir, "describe", "--tags", "--abbrev=0")
	if err != nil {
		return "", false, err
	}
	if !res.Ok() || res.Out() == "" {
		return "", false, nil
	}
	return res.Out(), true, nil
}

// HasChangesSinceTag reports whether commits exist after the last tag.
// A repository with no tags at all trivially has changes.
func (o *Ops) HasChangesSinceTag(dir string) (bool, error) {
	tag, ok, err := o.LastTag(dir)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	res, err := o.run.Run(dir, "rev-list", tag+"..HEAD", "--count")
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, vcsErr(res)
	}
	count, _ := strconv.Atoi(res.Out())
	return count > 0, nil
}

// LogSinceTag returns one-line log entries (abbreviated hash + subject)
// since the given tag, or for the whole history when tag is empty.
func (o *Ops) LogSinceTag(dir, tag string) (string, error) {
	revspec := "HEAD"
	if tag != "" {
		revspec = tag + "..HEAD"
	}
	return o.query(dir, "log", revspec, "--pretty=format:%h %s")
}

// DiffSinceTag returns the cumulative diff since the given tag. When tag
// is empty only the latest commit's diff is returned, since diffing from
// the root of history is rarely what an operator wants in an artifact.
func (o *Ops) DiffSinceTag(dir, tag string) (string, error) {
	if tag != "" {
		return o.query(dir, "diff", tag+"..HEAD")
	}
	if !o.RefExists(dir, "HEAD^") {
		// Root commit: there is no parent to diff against.
		return o.query(dir, "show", "--pretty=format:", "HEAD")
	}
	return o.query(dir, "diff", "HEAD^..HEAD")
}

// LastCommitMessage returns the full body of the most recent commit.
func (o *Ops) LastCommitMessage(dir string) (string, error) {
	return o.query(dir, "log", "-1", "--pretty=%B")
}

// CurrentBranch returns the short name of the checked-out branch.
func (o *Ops) CurrentBranch(dir string) (string, error) {
	return o.query(dir, "rev-parse", "--abbrev-ref", "HEAD")
}

// RemoteBranchExists reports whether remote/branch resolves to a ref.
func (o *Ops) RemoteBranchExists(dir, remote, branch string) bool {
	res, err := o.run.Run(dir, "rev-parse", "--verify", remote+"/"+branch)
	return err == nil && res.Ok()
}

// LocalBranchExists reports whether refs/heads/branch exists.
func (o *Ops) LocalBranchExists(dir, branch string) bool {
	res, err := o.run.Run(dir, "show-ref", "--verify", "refs/heads/"+branch)
	return err == nil && res.Ok()
}

// RefExists reports whether an arbitrary revision (tag, sha, ref)
// resolves in the repository.
func (o *Ops) RefExists(dir, ref string) bool {
	res, err := o.run.Run(dir, "rev-parse", "--verify", ref)
	return err == nil && res.Ok()
}

// TagExists reports whether the exact tag name exists. Callers must
// check this before CreateAnnotatedTag: tag creation is not idempotent
// and a duplicate tag is a fatal error at that layer.
func (o *Ops) TagExists(dir, tag string) (bool, error) {
	res, err := o.run.Run(dir, "tag", "-l", tag)
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, vcsErr(res)
	}
	return res.Out() != "", nil
}

// RemoteURL returns the URL configured for the named remote, reporting
// ok=false when the remote is not configured.
func (o *Ops) RemoteURL(dir, remote string) (string, bool) {
	res, err := o.run.Run(dir, "remote", "get-url", remote)
	if err != nil || !res.Ok() {
		return "", false
	}
	return res.Out(), true
}

// DefaultRemoteBranch resolves the remote's HEAD to its short branch
// name (e.g. "main"), reporting ok=false when the symbolic ref is not
// set locally.
func (o *Ops) DefaultRemoteBranch(dir, remote string) (string, bool) {
	res, err := o.run.Run(dir, "symbolic-ref", "refs/remotes/"+remote+"/HEAD")
	if err != nil || !res.Ok() || res.Out() == "" {
		return "", false
	}
	parts := strings.Split(res.Out(), "/")
	name := parts[len(parts)-1]
	if name == "" {
		return "", false
	}
	return name, true
}

// AheadBehind returns how many commits branch is ahead of and behind
// remoteRef. A remote ref that does not exist yields (0, 0): an
// unpublished branch is not an error state. Git sometimes emits a single
// counter when one side of the range is absent; that quirk is tolerated
// by treating the missing counter as zero.
func (o *Ops) AheadBehind(dir, branch, remoteRef string) (int, int, error) {
	res, err := o.run.Run(dir, "rev-list", "--left-right", "--count", branch+"..."+remoteRef)
	if err != nil {
		return 0, 0, err
	}
	out := res.Out()
	if !res.Ok() || out == "" {
		return 0, 0, nil
	}
	fields := strings.Fields(out)
	switch len(fields) {
	case 2:
		ahead, err1 := strconv.Atoi(fields[0])
		behind, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return 0, 0, nil
		}
		return ahead, behind, nil
	case 1:
		ahead, err1 := strconv.Atoi(fields[0])
		if err1 != nil {
			return 0, 0, nil
		}
		return ahead, 0, nil
	default:
		return 0, 0, nil
	}
}

// HasCommitsToPush reports whether the current branch carries commits
// the remote does not have. A branch with no remote counterpart always
// has something to push.
func (o *Ops) HasCommitsToPush(dir, remote string) (bool, error) {
	branch, err := o.CurrentBranch(dir)
	if err != nil {
		return false, err
	}
	if !o.RemoteBranchExists(dir, remote, branch) {
		return true, nil
	}
	res, err := o.run.Run(dir, "rev-list", "--left-right", "--count", remote+"/"+branch+"..HEAD")
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, vcsErr(res)
	}
	fields := strings.Fields(res.Out())
	if len(fields) == 0 {
		return false, nil
	}
	ahead, _ := strconv.Atoi(fields[0])
	return ahead > 0, nil
}

// --- mutations -------------------------------------------------------------

// Fetch updates remote-tracking refs for the named remote.
func (o *Ops) Fetch(dir, remote string) error {
	res, err := o.run.Mutate(dir, "fetch", remote)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return vcsErr(res)
	}
	return nil
}

// CommitAll stages all changes and commits them with the given message.
// A commit that fails because nothing was staged is a success-with-no-op
// (the second run of an already-applied stage must not error); every
// other non-zero exit is fatal. Returns whether a commit was created.
func (o *Ops) CommitAll(dir, message string) (bool, error) {
	res, err := o.run.Mutate(dir, "add", "-A")
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		return false, vcsErr(res)
	}

	res, err = o.run.Mutate(dir, "commit", "-m", message)
	if err != nil {
		return false, err
	}
	if !res.Ok() {
		if isNothingToCommit(res.Combined()) {
			o.log.Debugw("nothing to commit", "dir", dir)
			return false, nil
		}
		return false, vcsErr(res)
	}
	return true, nil
}

// Push pushes the current branch, falling back to an explicit
// --set-upstream push exactly once when the failure output indicates a
// missing upstream. A second failure is fatal.
func (o *Ops) Push(dir, remote string) error {
	res, err := o.run.Mutate(dir, "push", remote)
	if err != nil {
		return err
	}
	if res.Ok() {
		return nil
	}
	if !isMissingUpstream(res.Combined()) {
		return vcsErr(res)
	}

	branch, err := o.CurrentBranch(dir)
	if err != nil {
		return err
	}
	o.log.Infow("upstream not set, retrying with --set-upstream",
		"dir", dir, "branch", branch, "remote", remote)

	retry, err := o.run.Mutate(dir, "push", "--set-upstream", remote, branch)
	if err != nil {
		return err
	}
	if !retry.Ok() {
		return vcsErr(retry)
	}
	return nil
}

// PushRef pushes a single ref (typically a tag) to the remote.
func (o *Ops) PushRef(dir, remote, ref string) error {
	res, err := o.run.Mutate(dir, "push", remote, ref)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return vcsErr(res)
	}
	return nil
}

// CreateAnnotatedTag creates tag with the given message. Not idempotent:
// check TagExists first, a duplicate tag is fatal here.
func (o *Ops) CreateAnnotatedTag(dir, tag, message string) error {
	res, err := o.run.Mutate(dir, "tag", "-a", tag, "-m", message)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return vcsErr(res)
	}
	return nil
}

// CommitAndTag commits all staged changes, creates an annotated tag on
// the new commit, and optionally pushes both the branch and the tag.
func (o *Ops) CommitAndTag(dir, message, tag string, push bool, remote string) error {
	if _, err := o.CommitAll(dir, message); err != nil {
		return err
	}
	if err := o.CreateAnnotatedTag(dir, tag, message); err != nil {
		return err
	}
	if !push {
		return nil
	}
	if err := o.Push(dir, remote); err != nil {
		return err
	}
	return o.PushRef(dir, remote, tag)
}

// CheckoutBranch switches to branch. With a non-empty startPoint the
// branch is created or reset to it (checkout -B).
func (o *Ops) CheckoutBranch(dir, branch, startPoint string) error {
	var res Result
	var err error
	if startPoint == "" {
		res, err = o.run.Mutate(dir, "checkout", branch)
	} else {
		res, err = o.run.Mutate(dir, "checkout", "-B", branch, startPoint)
	}
	if err != nil {
		return err
	}
	if !res.Ok() {
		return vcsErr(res)
	}
	return nil
}

// EnsureTracking points branch at remote/branch when that remote branch
// exists; otherwise it is a no-op (the first push will establish the
// upstream via the fallback in Push).
func (o *Ops) EnsureTracking(dir, branch, remote string) error {
	if !o.RemoteBranchExists(dir, remote, branch) {
		return nil
	}
	res, err := o.run.Mutate(dir, "branch", "--set-upstream-to", remote+"/"+branch, branch)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return vcsErr(res)
	}
	return nil
}

// FastForward advances the current branch to ref without creating a
// merge commit. Returns whether anything was applied. Divergent history
// surfaces as model.ErrDivergentHistory for the caller to report; no
// automatic merge or rebase is ever attempted.
func (o *Ops) FastForward(dir, ref string) (bool, error) {
	res, err := o.run.Mutate(dir, "merge", "--ff-only", ref)
	if err != nil {
		return false, err
	}
	if res.Ok() {
		// A no-op merge exits zero with "Already up to date."
		return !isAlreadyUpToDate(res.Combined()), nil
	}
	if isAlreadyUpToDate(res.Combined()) {
		return false, nil
	}
	return false, fmt.Errorf("%w: cannot fast-forward to %s in %s", model.ErrDivergentHistory, ref, dir)
}

// query runs a read-only command and returns trimmed stdout, converting
// any non-zero exit into a VCSError.
func (o *Ops) query(dir string, args ...string) (string, error) {
	res, err := o.run.Run(dir, args...)
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", vcsErr(res)
	}
	return res.Out(), nil
}
