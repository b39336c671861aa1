package workspace

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/drover/internal/config"
	"github.com/mmr-tortoise/drover/internal/model"
)

func testSettings() *config.Settings {
	return &config.Settings{
		PackagesDir:  "packages",
		ChangesDir:   "release/changes",
		ManifestFile: "package.yaml",
	}
}

func TestListEnumeratesSorted(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, fs.MkdirAll("/work/packages/"+name, 0o755))
	}
	// A stray file in the packages dir is not a package.
	require.NoError(t, afero.WriteFile(fs, "/work/packages/README.md", []byte("x"), 0o644))

	enum := NewEnumerator(fs, testSettings(), "/work")
	units, err := enum.List(false)
	require.NoError(t, err)

	require.Len(t, units, 3)
	assert.Equal(t, "alpha", units[0].Name)
	assert.Equal(t, "mid", units[1].Name)
	assert.Equal(t, "zeta", units[2].Name)

	alpha := units[0]
	assert.Equal(t, filepath.Join("/work", "packages", "alpha"), alpha.Path)
	assert.Equal(t, filepath.Join("/work", "release", "changes", "alpha"), alpha.ChangesDir)
	assert.Equal(t, filepath.Join(alpha.Path, "package.yaml"), alpha.ManifestPath)
}

func TestListParticipationFilter(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work/packages/in", 0o755))
	require.NoError(t, fs.MkdirAll("/work/packages/out", 0o755))
	// Only "in" has a changes directory.
	require.NoError(t, fs.MkdirAll("/work/release/changes/in", 0o755))

	enum := NewEnumerator(fs, testSettings(), "/work")

	all, err := enum.List(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	participating, err := enum.List(true)
	require.NoError(t, err)
	require.Len(t, participating, 1)
	assert.Equal(t, "in", participating[0].Name)
}

func TestListMissingPackagesDirIsFatal(t *testing.T) {
	enum := NewEnumerator(afero.NewMemMapFs(), testSettings(), "/work")

	_, err := enum.List(false)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
}
