// Package artifacts manages the per-package change-artifact directory.
//
// Each package participating in a release owns one directory of plain
// text artifacts: the uncommitted-diff snapshot, the since-tag diff, and
// the human-edited commit-message and tag-message drafts. Stage
// advancement is gated on the presence and non-emptiness of these files;
// the exact filenames come from configuration, not from this package.
package artifacts

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/mmr-tortoise/drover/internal/model"
)

// DefaultTagMessageTemplate seeds the tag-message draft. Operators edit
// it before the bump stage will accept the package; an unedited draft
// counts as unauthored.
const DefaultTagMessageTemplate = `## Release {VERSION}

_Changes compared to {PREV_VERSION}_

<!-- Describe the main changes here -->
`

// Store reads and writes stage artifacts through an afero filesystem.
type Store struct {
	fs afero.Fs
}

// NewStore constructs a Store over the given filesystem.
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// Write creates the artifact, creating the package's changes directory
// as needed.
func (s *Store) Write(pkg model.PackageUnit, name, content string) error {
	if err := s.fs.MkdirAll(pkg.ChangesDir, 0o755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, filepath.Join(pkg.ChangesDir, name), []byte(content), 0o644)
}

// Seed creates the artifact with the given content only when it does
// not exist yet, so an operator's edits survive re-runs.
func (s *Store) Seed(pkg model.PackageUnit, name, content string) (bool, error) {
	path := filepath.Join(pkg.ChangesDir, name)
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.Write(pkg, name, content); err != nil {
		return false, err
	}
	return true, nil
}

// Read returns the artifact's content. A missing or empty artifact is
// model.ErrMissingArtifact: the stage gated on it skips the package.
func (s *Store) Read(pkg model.PackageUnit, name string) (string, error) {
	path := filepath.Join(pkg.ChangesDir, name)
	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", model.ErrMissingArtifact, path)
	}
	content := string(raw)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: %s is empty", model.ErrMissingArtifact, path)
	}
	return content, nil
}

// ReadAuthored returns the artifact's content, additionally rejecting a
// draft that is still byte-for-byte the seeded template — presence of
// the file alone does not prove a human approved the stage.
func (s *Store) ReadAuthored(pkg model.PackageUnit, name, template string) (string, error) {
	content, err := s.Read(pkg, name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == strings.TrimSpace(template) {
		return "", fmt.Errorf("%w: %s not edited", model.ErrMissingArtifact,
			filepath.Join(pkg.ChangesDir, name))
	}
	return content, nil
}

// Exists reports whether the artifact exists and is non-empty.
func (s *Store) Exists(pkg model.PackageUnit, name string) bool {
	_, err := s.Read(pkg, name)
	return err == nil
}

// Clear removes the package's entire changes directory.
func (s *Store) Clear(pkg model.PackageUnit) error {
	return s.fs.RemoveAll(pkg.ChangesDir)
}
