package model

import (
	"errors"
	"fmt"
)

// ExitCode defines the CLI exit codes reported to the OS.
// Code 0 is success; non-zero codes identify the failure class so that
// wrapper scripts can react without parsing stderr.
type ExitCode int

const (
	// ExitSuccess indicates the command completed without error.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates a fatal configuration or workspace
	// problem (unreadable settings, absent packages directory). These
	// terminate the run before any package is touched.
	ExitConfigError ExitCode = 2

	// ExitManifestError indicates a package manifest could not be read
	// or its version field could not be located.
	ExitManifestError ExitCode = 3

	// ExitVersionError indicates a version string did not match either
	// accepted shape (MAJOR.MINOR.PATCH or MAJOR.MINOR.PATCH.devN).
	ExitVersionError ExitCode = 4

	// ExitGitError indicates a git operation failed in a way not
	// recognized as benign.
	ExitGitError ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// Sentinel errors for the release pipeline. Callers branch on these with
// errors.Is; the concrete message wrapping them carries the detail.
var (
	// ErrInvalidVersion marks a version string that does not match
	// either accepted shape. Never silently coerced.
	ErrInvalidVersion = errors.New("invalid version format")

	// ErrDivergentHistory marks a fast-forward-only update that could
	// not apply because local and remote history diverge. Surfaced as a
	// per-package warning requiring manual intervention, never
	// auto-resolved.
	ErrDivergentHistory = errors.New("local and remote history diverge")

	// ErrMissingArtifact marks a required stage artifact that is absent
	// or empty. The package is skipped for that stage, not failed.
	ErrMissingArtifact = errors.New("required stage artifact missing or empty")

	// ErrManifestVersion marks a manifest whose version field could not
	// be located at the configured key path.
	ErrManifestVersion = errors.New("version field not found in manifest")
)

// VCSError is an external git command failing in a way not recognized
// as benign. Fatal for the current package; does not abort the run.
type VCSError struct {
	// Args is the git argument vector that failed.
	Args []string

	// Dir is the working directory the command ran in.
	Dir string

	// Output is the captured stderr (or stdout when stderr was empty).
	Output string
}

func (e *VCSError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("git %v failed in %s: %s", e.Args, e.Dir, e.Output)
	}
	return fmt.Sprintf("git %v failed in %s", e.Args, e.Dir)
}
