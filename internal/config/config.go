// Package config loads the drover settings file and supplies defaults.
//
// Settings are resolved once at startup into an explicit struct that is
// passed by reference into every component constructor — there is no
// ambient global lookup. The file is optional; with no file present the
// documented defaults apply.
//
// Search order when --config is not given: drover.yaml in the current
// directory, then ./.config/drover.yaml, then ./release/drover.yaml.
// Every key can also be overridden through the environment with a
// DROVER_ prefix (e.g. DROVER_GIT_REMOTE).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mmr-tortoise/drover/internal/model"
)

// Settings holds every configurable knob of the release pipeline.
type Settings struct {
	// PackagesDir is the workspace directory whose immediate
	// subdirectories are the release packages.
	PackagesDir string `mapstructure:"packages_dir"`

	// ChangesDir is the root of the per-package change-artifact
	// directories.
	ChangesDir string `mapstructure:"changes_dir"`

	// Artifact filenames inside each package's changes directory.
	UncommittedFile   string `mapstructure:"uncommitted_file"`
	SinceTagFile      string `mapstructure:"since_tag_file"`
	CommitMessageFile string `mapstructure:"commit_message_file"`
	TagMessageFile    string `mapstructure:"tag_message_file"`

	// ManifestFile is the manifest filename looked up in each package
	// root (e.g. "package.yaml", "pyproject.toml", "package.json").
	ManifestFile string `mapstructure:"manifest_file"`

	// ManifestVersionKey is the dotted key path of the version field
	// inside the manifest (e.g. "project.version").
	ManifestVersionKey string `mapstructure:"manifest_version_key"`

	// Remote is the git remote used for fetch and push.
	Remote string `mapstructure:"git_remote"`

	// Branch is the working branch prepared and released from.
	Branch string `mapstructure:"branch"`

	// BaseBranch is the branch new working branches are created from.
	BaseBranch string `mapstructure:"base_branch"`

	// TagPrefix is concatenated with the version string to form tag
	// names, with no further normalization.
	TagPrefix string `mapstructure:"tag_prefix"`

	// DryRun simulates every mutating call.
	DryRun bool `mapstructure:"dry_run"`

	// Source records where the settings came from, for diagnostics.
	Source string `mapstructure:"-"`
}

// defaults apply for every key no file or environment value overrides.
func defaults(v *viper.Viper) {
	v.SetDefault("packages_dir", "packages")
	v.SetDefault("changes_dir", "release/changes")
	v.SetDefault("uncommitted_file", "changes_uncommitted.txt")
	v.SetDefault("since_tag_file", "changes_since_tag.txt")
	v.SetDefault("commit_message_file", "commit_message.txt")
	v.SetDefault("tag_message_file", "tag_message.txt")
	v.SetDefault("manifest_file", "package.yaml")
	v.SetDefault("manifest_version_key", "project.version")
	v.SetDefault("git_remote", "origin")
	v.SetDefault("branch", "dev")
	v.SetDefault("base_branch", "main")
	v.SetDefault("tag_prefix", "v")
	v.SetDefault("dry_run", false)
}

// Load resolves settings from the given file, or from the search path
// when path is empty. A missing explicit file is fatal; an absent
// implicit file falls back to defaults.
func Load(path string) (*Settings, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("drover")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("cannot read config file %s", path), err)
		}
	} else {
		v.SetConfigName("drover")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./.config")
		v.AddConfigPath("./release")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, model.WrapCLIError(model.ExitConfigError, "cannot read config file", err)
			}
			// No file anywhere on the search path — defaults apply.
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid configuration", err)
	}
	s.Source = v.ConfigFileUsed()
	if s.Source == "" {
		s.Source = "<defaults>"
	}
	return &s, nil
}
