package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeStatusUnpublishedBranch(t *testing.T) {
	repo := setupTestRepo(t)
	ops := newTestOps(t)

	// No remote at all: counts are zero, dirtiness is still reported.
	status, err := ops.AnalyzeStatus(repo, "main", "origin")
	require.NoError(t, err)
	assert.Zero(t, status.Ahead)
	assert.Zero(t, status.Behind)
	assert.False(t, status.Uncommitted)
	assert.Equal(t, "ok", status.Summary())

	writeTestFile(t, repo, "dirty.txt", "dirty\n")
	status, err = ops.AnalyzeStatus(repo, "main", "origin")
	require.NoError(t, err)
	assert.True(t, status.Uncommitted)
	assert.Equal(t, "uncommitted", status.Summary())
}

func TestAnalyzeStatusAheadOfRemote(t *testing.T) {
	repo := setupTestRepo(t)
	setupTestRemote(t, repo)
	ops := newTestOps(t)

	status, err := ops.AnalyzeStatus(repo, "main", "origin")
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Summary())

	writeTestFile(t, repo, "local.txt", "local\n")
	runTestGit(t, repo, "add", ".")
	runTestGit(t, repo, "commit", "-m", "local work")

	status, err = ops.AnalyzeStatus(repo, "main", "origin")
	require.NoError(t, err)
	assert.Equal(t, 1, status.Ahead)
	assert.Equal(t, 0, status.Behind)
	assert.False(t, status.Uncommitted)
}
