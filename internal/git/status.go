package git

import "github.com/mmr-tortoise/drover/internal/model"

// AnalyzeStatus reconciles the ahead/behind counts and the dirty flag
// for one package into a single status record.
//
// A branch with no remote counterpart reports (0, 0): unpublished is not
// an error, and not the same statement as "in sync" — the caller can
// distinguish the two via RemoteBranchExists if it needs to. The
// uncommitted flag is an independent query performed regardless of
// remote-branch existence. This function issues no mutating calls.
func (o *Ops) AnalyzeStatus(dir, branch, remote string) (model.RepoStatus, error) {
	var status model.RepoStatus

	if o.RemoteBranchExists(dir, remote, branch) {
		ahead, behind, err := o.AheadBehind(dir, branch, remote+"/"+branch)
		if err != nil {
			return status, err
		}
		status.Ahead = ahead
		status.Behind = behind
	}

	uncommitted, err := o.HasUncommittedChanges(dir)
	if err != nil {
		return status, err
	}
	status.Uncommitted = uncommitted
	return status, nil
}
