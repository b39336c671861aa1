// Package workspace enumerates the release packages of a workspace.
//
// Every immediate subdirectory of the configured packages directory is
// one independently-versioned package. Enumeration happens once per
// pipeline run; the resulting units are read-only for the duration of
// the run.
package workspace

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/mmr-tortoise/drover/internal/config"
	"github.com/mmr-tortoise/drover/internal/model"
)

// Enumerator discovers package units from the workspace layout.
type Enumerator struct {
	fs  afero.Fs
	cfg *config.Settings

	// Root is the workspace root all configured paths are relative to.
	Root string
}

// NewEnumerator constructs an Enumerator rooted at root.
func NewEnumerator(fs afero.Fs, cfg *config.Settings, root string) *Enumerator {
	return &Enumerator{fs: fs, cfg: cfg, Root: root}
}

// List returns the package units in deterministic (sorted) order.
//
// With onlyParticipating set, packages without an existing change
// directory are filtered out — later stages only visit packages the
// capture stages have touched. An absent packages directory is a fatal
// configuration error: the run terminates before any package is touched.
func (e *Enumerator) List(onlyParticipating bool) ([]model.PackageUnit, error) {
	packagesDir := filepath.Join(e.Root, e.cfg.PackagesDir)
	ok, err := afero.DirExists(e.fs, packagesDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("packages directory not found: %s", packagesDir))
	}

	entries, err := afero.ReadDir(e.fs, packagesDir)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "cannot read packages directory", err)
	}

	changesRoot := filepath.Join(e.Root, e.cfg.ChangesDir)

	var units []model.PackageUnit
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		changesDir := filepath.Join(changesRoot, name)

		if onlyParticipating {
			exists, err := afero.DirExists(e.fs, changesDir)
			if err != nil {
				return nil, err
			}
			if !exists {
				continue
			}
		}

		pkgPath := filepath.Join(packagesDir, name)
		units = append(units, model.PackageUnit{
			Name:         name,
			Path:         pkgPath,
			ChangesDir:   changesDir,
			ManifestPath: filepath.Join(pkgPath, e.cfg.ManifestFile),
		})
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units, nil
}
