package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestRepo creates a temporary directory with an initialized git
// repository containing a single commit, the realistic baseline for
// operation tests. A repo-local user identity is configured so commits
// work in CI environments without a global git config.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runTestGit(t, dir, "init", "-b", "main")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	writeTestFile(t, dir, "README.md", "# Test Repo\n")
	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// setupTestRemote creates a bare repository and wires it as "origin" of
// repo, pushing main so a remote-tracking ref exists.
func setupTestRemote(t *testing.T, repo string) string {
	t.Helper()

	bare := t.TempDir()
	cmd := exec.Command("git", "init", "--bare", bare)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git init --bare failed: %s", out)

	runTestGit(t, repo, "remote", "add", "origin", bare)
	runTestGit(t, repo, "push", "-u", "origin", "main")
	return bare
}

// runTestGit runs a git command in dir and fails the test on a non-zero
// exit, keeping setup code free of repetitive error checks.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readTestFile(t *testing.T, dir, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(raw)
}

// newTestOps builds an Ops with a no-op logger.
func newTestOps(t *testing.T) *Ops {
	t.Helper()
	log := zap.NewNop().Sugar()
	return NewOps(NewRunner(log, false), log)
}

// newDryRunOps builds an Ops whose runner suppresses mutations.
func newDryRunOps(t *testing.T) *Ops {
	t.Helper()
	log := zap.NewNop().Sugar()
	return NewOps(NewRunner(log, true), log)
}
