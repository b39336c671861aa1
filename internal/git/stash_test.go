package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/drover/internal/model"
)

func TestStashDisabledIsNoop(t *testing.T) {
	repo := setupTestRepo(t)
	ops := newTestOps(t)

	writeTestFile(t, repo, "dirty.txt", "dirty\n")

	stash, err := ops.BeginStash(repo, StashOptions{Enabled: false, Label: "test"})
	require.NoError(t, err)
	state, err := stash.End()
	require.NoError(t, err)
	assert.Equal(t, model.StashNone, state)

	// The dirty file is untouched.
	assert.Equal(t, "dirty\n", readTestFile(t, repo, "dirty.txt"))
}

func TestStashCleanTreeIsNoop(t *testing.T) {
	repo := setupTestRepo(t)
	ops := newTestOps(t)

	stash, err := ops.BeginStash(repo, StashOptions{Enabled: true, IncludeUntracked: true, Label: "test"})
	require.NoError(t, err)
	state, err := stash.End()
	require.NoError(t, err)
	assert.Equal(t, model.StashNone, state)
}

// TestStashAroundCheckout is the core transaction property: a dirty
// tree, a conflict-free branch switch inside the transaction, and a
// working tree afterwards that is byte-identical to the pre-transaction
// state plus the checkout's own effect.
func TestStashAroundCheckout(t *testing.T) {
	repo := setupTestRepo(t)
	ops := newTestOps(t)

	writeTestFile(t, repo, "wip.txt", "work in progress\n")

	stash, err := ops.BeginStash(repo, StashOptions{
		Enabled:          true,
		IncludeUntracked: true,
		Label:            "drover-auto-dev",
	})
	require.NoError(t, err)

	// The risky operation: create and switch to a new branch. With the
	// stash active the tree is clean, so the checkout cannot collide
	// with the shelved changes.
	require.NoError(t, ops.CheckoutBranch(repo, "dev", "HEAD"))

	state, err := stash.End()
	require.NoError(t, err)
	assert.Equal(t, model.StashRestored, state)

	// The shelved file is back, on the new branch.
	assert.Equal(t, "work in progress\n", readTestFile(t, repo, "wip.txt"))
	branch, err := ops.CurrentBranch(repo)
	require.NoError(t, err)
	assert.Equal(t, "dev", branch)

	// Clean restore drops the labeled entry: the stash list is empty.
	out := runTestGit(t, repo, "stash", "list")
	assert.Empty(t, out)
}

func TestStashKeepRetainsEntry(t *testing.T) {
	repo := setupTestRepo(t)
	ops := newTestOps(t)

	writeTestFile(t, repo, "wip.txt", "keep me\n")

	stash, err := ops.BeginStash(repo, StashOptions{
		Enabled:          true,
		IncludeUntracked: true,
		Label:            "drover-keep",
		Keep:             true,
	})
	require.NoError(t, err)

	state, err := stash.End()
	require.NoError(t, err)
	assert.Equal(t, model.StashKept, state)

	// The content is restored and the labeled entry is still listed.
	assert.Equal(t, "keep me\n", readTestFile(t, repo, "wip.txt"))
	out := runTestGit(t, repo, "stash", "list")
	assert.Contains(t, out, "drover-keep")
}

func TestStashEndIsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	ops := newTestOps(t)

	writeTestFile(t, repo, "wip.txt", "once\n")

	stash, err := ops.BeginStash(repo, StashOptions{Enabled: true, IncludeUntracked: true, Label: "x"})
	require.NoError(t, err)

	first, err := stash.End()
	require.NoError(t, err)
	second, err := stash.End()
	require.NoError(t, err)
	assert.Equal(t, first, second, "a second End must not pop again")
}

// TestStashBlockedPopKeepsEntry covers a pop that refuses outright
// without leaving unmerged paths: the entry must survive, since dropping
// it would lose the shelved work.
func TestStashBlockedPopKeepsEntry(t *testing.T) {
	repo := setupTestRepo(t)
	ops := newTestOps(t)

	writeTestFile(t, repo, "wip.txt", "shelved\n")

	stash, err := ops.BeginStash(repo, StashOptions{
		Enabled:          true,
		IncludeUntracked: true,
		Label:            "drover-blocked",
	})
	require.NoError(t, err)

	// An untracked file now occupies the path the stash wants to
	// restore; the pop fails without producing conflict markers.
	writeTestFile(t, repo, "wip.txt", "in the way\n")

	state, err := stash.End()
	require.NoError(t, err)
	assert.Equal(t, model.StashKept, state)

	out := runTestGit(t, repo, "stash", "list")
	assert.Contains(t, out, "drover-blocked", "shelved work must survive the failed pop")
	assert.Equal(t, "in the way\n", readTestFile(t, repo, "wip.txt"))
}

func TestStashConflictIsKept(t *testing.T) {
	repo := setupTestRepo(t)
	ops := newTestOps(t)

	// Shelve a modification to README.md, then commit a conflicting
	// change to the same line so the pop cannot apply cleanly.
	writeTestFile(t, repo, "README.md", "# stashed version\n")

	stash, err := ops.BeginStash(repo, StashOptions{
		Enabled:          true,
		IncludeUntracked: true,
		Label:            "drover-conflict",
	})
	require.NoError(t, err)

	writeTestFile(t, repo, "README.md", "# committed version\n")
	runTestGit(t, repo, "add", ".")
	runTestGit(t, repo, "commit", "-m", "conflicting change")

	state, err := stash.End()
	require.NoError(t, err)
	assert.Equal(t, model.StashKept, state,
		"a conflicted pop keeps the stash entry for manual resolution")
}
