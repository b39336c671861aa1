package pipeline

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmr-tortoise/drover/internal/artifacts"
	"github.com/mmr-tortoise/drover/internal/config"
	"github.com/mmr-tortoise/drover/internal/git"
	"github.com/mmr-tortoise/drover/internal/manifest"
	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/workspace"
)

const widgetManifest = `project:
  name: widget
  version: "0.4.1"
`

// testWorkspace is one workspace root with a single git-backed package
// at packages/widget, version 0.4.1, plus pre-authored message drafts so
// the gated stages advance instead of skipping.
type testWorkspace struct {
	root  string
	pkg   string
	coord *Coordinator
	cfg   *config.Settings
}

func newTestWorkspace(t *testing.T) *testWorkspace {
	t.Helper()

	root := t.TempDir()
	pkg := filepath.Join(root, "packages", "widget")
	require.NoError(t, os.MkdirAll(pkg, 0o755))

	gitIn(t, pkg, "init", "-b", "main")
	gitIn(t, pkg, "config", "user.email", "test@example.com")
	gitIn(t, pkg, "config", "user.name", "Test User")
	writeFile(t, pkg, "package.yaml", widgetManifest)
	gitIn(t, pkg, "add", ".")
	gitIn(t, pkg, "commit", "-m", "initial commit")

	// Uncommitted work the pipeline will capture and commit.
	writeFile(t, pkg, "widget.go", "package widget\n")

	// Pre-authored drafts. Seeding never overwrites, so the capture
	// stages leave these in place and the gates open.
	changes := filepath.Join(root, "release", "changes", "widget")
	require.NoError(t, os.MkdirAll(changes, 0o755))
	writeFile(t, changes, "commit_message.txt", "feat: add widget core\n")
	writeFile(t, changes, "tag_message.txt",
		"## Release {VERSION}\n\nWidget core shipped, compared to {PREV_VERSION}.\n")

	cfg := &config.Settings{
		PackagesDir:        "packages",
		ChangesDir:         "release/changes",
		UncommittedFile:    "changes_uncommitted.txt",
		SinceTagFile:       "changes_since_tag.txt",
		CommitMessageFile:  "commit_message.txt",
		TagMessageFile:     "tag_message.txt",
		ManifestFile:       "package.yaml",
		ManifestVersionKey: "project.version",
		Remote:             "origin",
		Branch:             "dev",
		BaseBranch:         "main",
		TagPrefix:          "v",
	}

	log := zap.NewNop().Sugar()
	fs := afero.NewOsFs()
	ops := git.NewOps(git.NewRunner(log, false), log)
	coord := New(cfg, ops, manifest.NewStore(fs), artifacts.NewStore(fs),
		workspace.NewEnumerator(fs, cfg, root), log, false)

	return &testWorkspace{root: root, pkg: pkg, coord: coord, cfg: cfg}
}

func gitIn(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
	return string(out)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func outcomeFor(t *testing.T, outcomes []model.PackageOutcome, name string) model.PackageOutcome {
	t.Helper()
	for _, out := range outcomes {
		if out.Name == name {
			return out
		}
	}
	t.Fatalf("no outcome for package %q", name)
	return model.PackageOutcome{}
}

// TestFullRun drives all six stages over a dirty 0.4.1 package and
// checks the end state: the dirty work is committed, the manifest went
// through 0.4.2 to 0.4.3.dev0, and an annotated tag v0.4.2 exists.
func TestFullRun(t *testing.T) {
	ws := newTestWorkspace(t)

	results, err := ws.coord.Run(RunOptions{
		Bump:    model.BumpPatch,
		Push:    false,
		Prepare: PrepareOptions{FallbackHead: true, FallbackLocal: true},
	})
	require.NoError(t, err)
	require.Len(t, results, 6)

	// No remote is configured, so branch preparation steps aside instead
	// of failing the run.
	prep := outcomeFor(t, results[model.StagePrepareBranch], "widget")
	assert.True(t, prep.Skipped)
	assert.NoError(t, prep.Err)

	capture := outcomeFor(t, results[model.StageCaptureUncommitted], "widget")
	require.NoError(t, capture.Err)
	assert.False(t, capture.Skipped)
	assert.Equal(t, "captured and committed", capture.Reason)

	bump := outcomeFor(t, results[model.StageBumpVersion], "widget")
	require.NoError(t, bump.Err)
	assert.Equal(t, "0.4.1 -> 0.4.2", bump.Reason)

	tag := outcomeFor(t, results[model.StageCreateTag], "widget")
	require.NoError(t, tag.Err)
	assert.Equal(t, "tagged v0.4.2", tag.Reason)

	publish := outcomeFor(t, results[model.StagePublish], "widget")
	require.NoError(t, publish.Err)
	assert.Equal(t, "next cycle 0.4.3.dev0", publish.Reason)
	assert.False(t, publish.PushDone)

	// End state in the repository itself.
	tags := gitIn(t, ws.pkg, "tag", "-l", "v0.4.2")
	assert.Contains(t, tags, "v0.4.2")

	raw, err := os.ReadFile(filepath.Join(ws.pkg, "package.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `version: "0.4.3.dev0"`)

	// The tag message carries the authored draft with placeholders
	// substituted.
	tagMsg := gitIn(t, ws.pkg, "tag", "-l", "-n100", "v0.4.2")
	assert.Contains(t, tagMsg, "Release 0.4.2")
	assert.Contains(t, tagMsg, "compared to 0.4.1")

	// The capture artifacts landed in the changes directory.
	changes := filepath.Join(ws.root, "release", "changes", "widget")
	uncommitted, err := os.ReadFile(filepath.Join(changes, "changes_uncommitted.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(uncommitted), "widget.go")
}

func TestCaptureUncommittedWithoutAuthoredMessage(t *testing.T) {
	ws := newTestWorkspace(t)

	// Remove the authored draft: the stage must capture the diff, seed an
	// empty draft, and stop short of committing.
	changes := filepath.Join(ws.root, "release", "changes", "widget")
	require.NoError(t, os.Remove(filepath.Join(changes, "commit_message.txt")))

	outcomes, err := ws.coord.CaptureUncommitted(CaptureOptions{})
	require.NoError(t, err)
	out := outcomeFor(t, outcomes, "widget")
	require.NoError(t, out.Err)
	assert.Equal(t, "captured; commit message not authored yet", out.Reason)

	// Still dirty: no commit happened.
	status := gitIn(t, ws.pkg, "status", "--porcelain")
	assert.NotEmpty(t, status)

	// The empty draft was seeded for the operator to fill in.
	_, statErr := os.Stat(filepath.Join(changes, "commit_message.txt"))
	assert.NoError(t, statErr)
}

func TestCaptureUncommittedCleanTreeSkips(t *testing.T) {
	ws := newTestWorkspace(t)
	gitIn(t, ws.pkg, "add", ".")
	gitIn(t, ws.pkg, "commit", "-m", "commit everything up front")

	outcomes, err := ws.coord.CaptureUncommitted(CaptureOptions{})
	require.NoError(t, err)
	out := outcomeFor(t, outcomes, "widget")
	assert.True(t, out.Skipped)
	assert.Equal(t, "no uncommitted changes", out.Reason)
}

func TestBumpVersionSkipsUneditedTemplate(t *testing.T) {
	ws := newTestWorkspace(t)

	// Replace the authored draft with the verbatim seed template: the
	// gate must treat it as unauthored.
	changes := filepath.Join(ws.root, "release", "changes", "widget")
	writeFile(t, changes, "tag_message.txt", artifacts.DefaultTagMessageTemplate)

	outcomes, err := ws.coord.BumpVersion(BumpOptions{Kind: model.BumpPatch})
	require.NoError(t, err)
	out := outcomeFor(t, outcomes, "widget")
	assert.True(t, out.Skipped)
	assert.Equal(t, "tag message not authored", out.Reason)

	raw, rerr := os.ReadFile(filepath.Join(ws.pkg, "package.yaml"))
	require.NoError(t, rerr)
	assert.Contains(t, string(raw), `version: "0.4.1"`, "manifest must be untouched")
}

func TestBumpVersionRejectsInvalidKind(t *testing.T) {
	ws := newTestWorkspace(t)
	_, err := ws.coord.BumpVersion(BumpOptions{Kind: model.BumpKind("huge")})
	assert.Error(t, err)
}

func TestCreateTagIsIdempotent(t *testing.T) {
	ws := newTestWorkspace(t)
	gitIn(t, ws.pkg, "add", ".")
	gitIn(t, ws.pkg, "commit", "-m", "release prep")

	outcomes, err := ws.coord.CreateTag(TagOptions{})
	require.NoError(t, err)
	first := outcomeFor(t, outcomes, "widget")
	require.NoError(t, first.Err)
	assert.Equal(t, "tagged v0.4.1", first.Reason)

	// Re-running must notice the existing tag and skip, not fail.
	outcomes, err = ws.coord.CreateTag(TagOptions{})
	require.NoError(t, err)
	second := outcomeFor(t, outcomes, "widget")
	require.NoError(t, second.Err)
	assert.True(t, second.Skipped)
	assert.Equal(t, "tag v0.4.1 already exists", second.Reason)
}

func TestStatus(t *testing.T) {
	ws := newTestWorkspace(t)

	outcomes, err := ws.coord.Status()
	require.NoError(t, err)
	out := outcomeFor(t, outcomes, "widget")
	require.NoError(t, out.Err)
	assert.Equal(t, "main", out.Reason)
	assert.True(t, out.Status.Uncommitted)
}

func TestClear(t *testing.T) {
	ws := newTestWorkspace(t)
	changes := filepath.Join(ws.root, "release", "changes", "widget")

	outcomes, err := ws.coord.Clear()
	require.NoError(t, err)
	out := outcomeFor(t, outcomes, "widget")
	require.NoError(t, out.Err)
	assert.Equal(t, "artifacts cleared", out.Reason)

	_, statErr := os.Stat(changes)
	assert.True(t, os.IsNotExist(statErr))
}

// TestPerPackageFailureIsolation breaks one of two packages and checks
// that the sibling still completes while the broken one carries its
// error in the outcome.
func TestPerPackageFailureIsolation(t *testing.T) {
	ws := newTestWorkspace(t)

	// Second package with a manifest whose version key is missing.
	broken := filepath.Join(ws.root, "packages", "broken")
	require.NoError(t, os.MkdirAll(broken, 0o755))
	gitIn(t, broken, "init", "-b", "main")
	gitIn(t, broken, "config", "user.email", "test@example.com")
	gitIn(t, broken, "config", "user.name", "Test User")
	writeFile(t, broken, "package.yaml", "project:\n  name: broken\n")
	gitIn(t, broken, "add", ".")
	gitIn(t, broken, "commit", "-m", "initial commit")

	brokenChanges := filepath.Join(ws.root, "release", "changes", "broken")
	require.NoError(t, os.MkdirAll(brokenChanges, 0o755))
	writeFile(t, brokenChanges, "tag_message.txt", "## Release {VERSION}\n\nAuthored.\n")

	outcomes, err := ws.coord.BumpVersion(BumpOptions{Kind: model.BumpPatch})
	require.NoError(t, err, "a package failure must not abort the stage")

	bad := outcomeFor(t, outcomes, "broken")
	assert.Error(t, bad.Err)

	good := outcomeFor(t, outcomes, "widget")
	require.NoError(t, good.Err)
	assert.Equal(t, "0.4.1 -> 0.4.2", good.Reason)

	summary := Summarize(outcomes)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Error(t, summary.Err)
}

func TestDryRunLeavesEverythingUntouched(t *testing.T) {
	ws := newTestWorkspace(t)

	log := zap.NewNop().Sugar()
	fs := afero.NewOsFs()
	dryOps := git.NewOps(git.NewRunner(log, true), log)
	dry := New(ws.cfg, dryOps, manifest.NewStore(fs), artifacts.NewStore(fs),
		workspace.NewEnumerator(fs, ws.cfg, ws.root), log, true)

	_, err := dry.Run(RunOptions{
		Bump:    model.BumpPatch,
		Prepare: PrepareOptions{FallbackHead: true, FallbackLocal: true},
	})
	require.NoError(t, err)

	// Working tree still dirty, manifest unchanged, no tags created.
	status := gitIn(t, ws.pkg, "status", "--porcelain")
	assert.NotEmpty(t, status)

	raw, rerr := os.ReadFile(filepath.Join(ws.pkg, "package.yaml"))
	require.NoError(t, rerr)
	assert.Contains(t, string(raw), `version: "0.4.1"`)

	tags := gitIn(t, ws.pkg, "tag", "-l")
	assert.Empty(t, tags)
}
