package git

import "strings"

// Benign-failure classification.
//
// Git signals several "nothing to do" conditions only through its
// diagnostic text, and the exact wording varies across git versions.
// Each classifier below matches the known phrasings for one failure kind
// and nothing else, so a wording change in a future git release touches
// exactly one function.

// nothingToCommitPhrases are emitted by `git commit` when the index is
// empty. Both variants have been observed; older gits say the second.
var nothingToCommitPhrases = []string{
	"nothing to commit",
	"nothing added to commit",
}

// missingUpstreamPhrases are emitted by `git push` when the current
// branch has no configured upstream.
var missingUpstreamPhrases = []string{
	"set upstream",
	"--set-upstream",
	"have no upstream",
	"upstream branch",
}

// isNothingToCommit reports whether a failed commit's output indicates
// there was nothing staged — a success-with-no-op, not an error.
func isNothingToCommit(output string) bool {
	return containsAny(output, nothingToCommitPhrases)
}

// isMissingUpstream reports whether a failed push's output indicates the
// branch lacks a configured upstream, warranting one --set-upstream
// retry.
func isMissingUpstream(output string) bool {
	return containsAny(output, missingUpstreamPhrases)
}

// isAlreadyUpToDate reports whether a failed fast-forward merge actually
// had nothing to apply.
func isAlreadyUpToDate(output string) bool {
	return strings.Contains(strings.ToLower(output), "already up to date")
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
