// Package manifest reads and writes the version field of a package
// manifest.
//
// The manifest is a structured key-value document; the version lives at
// a configured dotted key path (e.g. "project.version"). Three formats
// are supported, chosen by file extension: YAML (package.yaml), TOML
// (pyproject.toml style), and JSON with comments (package.json /
// package.jsonc).
//
// Reading parses the whole document. Writing deliberately does not
// re-serialize it: only the single line assigning the version field is
// rewritten, so comments, ordering, and formatting of everything else
// survive byte-for-byte. The pipeline only ever owns that one field.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/drover/internal/model"
)

// Format identifies a supported manifest syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
	FormatJSON
)

// DetectFormat maps a manifest filename to its Format.
func DetectFormat(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML, nil
	case strings.HasSuffix(lower, ".toml"):
		return FormatTOML, nil
	case strings.HasSuffix(lower, ".json"), strings.HasSuffix(lower, ".jsonc"):
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unsupported manifest format: %s", path)
	}
}

// Store reads and writes manifests through an afero filesystem so tests
// can run against an in-memory fs.
type Store struct {
	fs afero.Fs
}

// NewStore constructs a Store over the given filesystem.
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// ReadVersion returns the version string stored at keyPath in the
// manifest at path.
func (s *Store) ReadVersion(path, keyPath string) (string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return "", model.WrapCLIError(model.ExitManifestError, path, err)
	}
	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return "", model.WrapCLIError(model.ExitManifestError, "cannot read manifest", err)
	}

	doc, err := parseDoc(format, raw)
	if err != nil {
		return "", model.WrapCLIError(model.ExitManifestError, "cannot parse manifest "+path, err)
	}

	value, ok := lookup(doc, strings.Split(keyPath, "."))
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", model.ErrManifestVersion, keyPath, path)
	}
	version, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s in %s is not a string", model.ErrManifestVersion, keyPath, path)
	}
	return version, nil
}

// WriteVersion replaces oldVersion with newVersion on the line that
// assigns the version key, leaving every other byte of the manifest
// untouched. The old version must be known and present: replacing a
// matched key+value pair is what makes the edit safe without a
// structure-preserving serializer.
//
// The trailing key name and old value alone can also match a lookalike
// assignment in another table (a dependency pin carrying the same
// version string). Each candidate edit is therefore verified by
// re-parsing the document: it is kept only when the full key path now
// resolves to the new version, otherwise the next candidate line is
// tried.
func (s *Store) WriteVersion(path, keyPath, oldVersion, newVersion string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return model.WrapCLIError(model.ExitManifestError, path, err)
	}
	raw, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return model.WrapCLIError(model.ExitManifestError, "cannot read manifest", err)
	}

	keys := strings.Split(keyPath, ".")
	key := keys[len(keys)-1]
	re := assignmentPattern(format, key, oldVersion)

	lines := strings.Split(string(raw), "\n")
	replaced := false
	for i, line := range lines {
		if !re.MatchString(line) {
			continue
		}
		lines[i] = strings.Replace(line, oldVersion, newVersion, 1)
		if versionAt(format, []byte(strings.Join(lines, "\n")), keyPath) == newVersion {
			replaced = true
			break
		}
		lines[i] = line
	}
	if !replaced {
		return fmt.Errorf("%w: %s=%s in %s", model.ErrManifestVersion, keyPath, oldVersion, path)
	}

	mode := os.FileMode(0o644)
	if info, statErr := s.fs.Stat(path); statErr == nil {
		mode = info.Mode()
	}
	if err := afero.WriteFile(s.fs, path, []byte(strings.Join(lines, "\n")), mode); err != nil {
		return model.WrapCLIError(model.ExitManifestError, "cannot write manifest", err)
	}
	return nil
}

// parseDoc unmarshals a manifest into a generic document tree.
func parseDoc(format Format, raw []byte) (map[string]any, error) {
	var doc map[string]any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &doc)
	case FormatTOML:
		err = toml.Unmarshal(raw, &doc)
	case FormatJSON:
		err = json.Unmarshal(jsonc.ToJSON(raw), &doc)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// versionAt parses raw and returns the string at keyPath, or "" when
// the document does not parse or the path does not resolve to a string.
func versionAt(format Format, raw []byte, keyPath string) string {
	doc, err := parseDoc(format, raw)
	if err != nil {
		return ""
	}
	value, ok := lookup(doc, strings.Split(keyPath, "."))
	if !ok {
		return ""
	}
	version, _ := value.(string)
	return version
}

// assignmentPattern matches the line assigning key the exact old value
// in the given syntax. The value match is anchored to the key so an
// identical string elsewhere in the document is never touched.
func assignmentPattern(format Format, key, value string) *regexp.Regexp {
	k := regexp.QuoteMeta(key)
	v := regexp.QuoteMeta(value)
	switch format {
	case FormatTOML:
		return regexp.MustCompile(`^\s*` + k + `\s*=\s*["']` + v + `["']`)
	case FormatJSON:
		return regexp.MustCompile(`^\s*"` + k + `"\s*:\s*"` + v + `"`)
	default: // YAML
		return regexp.MustCompile(`^\s*` + k + `\s*:\s*["']?` + v + `["']?\s*(#.*)?$`)
	}
}

// lookup walks a dotted key path through nested maps. Both
// map[string]any (yaml.v3, json, toml string keys) and map[any]any
// (older yaml documents) are handled.
func lookup(doc any, keys []string) (any, bool) {
	current := doc
	for _, key := range keys {
		switch m := current.(type) {
		case map[string]any:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			current = v
		case map[any]any:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}
	return current, true
}
