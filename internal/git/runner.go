package git

import (
	"errors"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Result is the outcome of one external git invocation: the argument
// vector, the directory it ran in, the exit status, and the captured
// output streams. Results are owned solely by the caller that issued the
// command and are never cached or shared.
type Result struct {
	Args     []string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Ok reports whether the command exited with status zero.
func (r Result) Ok() bool {
	return r.ExitCode == 0
}

// Out returns stdout with surrounding whitespace trimmed.
func (r Result) Out() string {
	return strings.TrimSpace(r.Stdout)
}

// Combined returns stdout and stderr concatenated, for classifiers that
// must match phrasing git emits on either stream.
func (r Result) Combined() string {
	return r.Stdout + r.Stderr
}

// Runner executes git commands against a working directory. It performs
// no retries and attaches no meaning to exit codes — that is the job of
// Ops. The only behavior it owns is dry-run short-circuiting: mutating
// commands are logged instead of executed when DryRun is set.
type Runner struct {
	// Bin is the git executable to invoke. Defaults to "git".
	Bin string

	// DryRun suppresses mutating commands, logging what would have run
	// and returning a synthetic success result.
	DryRun bool

	log *zap.SugaredLogger
}

// NewRunner constructs a Runner logging through the given logger.
func NewRunner(log *zap.SugaredLogger, dryRun bool) *Runner {
	return &Runner{Bin: "git", DryRun: dryRun, log: log}
}

// Run executes a read-only git command in dir and returns its Result.
// A non-zero exit is not an error; the error return is reserved for
// failure to invoke the executable at all (e.g. git not installed).
func (r *Runner) Run(dir string, args ...string) (Result, error) {
	return r.exec(dir, args)
}

// Mutate executes a state-changing git command in dir. Under dry-run the
// command is logged and a synthetic success result returned; otherwise
// it behaves exactly like Run.
func (r *Runner) Mutate(dir string, args ...string) (Result, error) {
	if r.DryRun {
		r.log.Infof("[dry-run] git -C %s %s", dir, strings.Join(args, " "))
		return Result{Args: args, Dir: dir, ExitCode: 0}, nil
	}
	return r.exec(dir, args)
}

func (r *Runner) exec(dir string, args []string) (Result, error) {
	bin := r.Bin
	if bin == "" {
		bin = "git"
	}

	// -C makes git operate in the target directory without changing the
	// process's own working directory, which matters because many
	// package repositories are visited in one run.
	fullArgs := append([]string{"-C", dir}, args...)

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.Command(bin, fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Args:   args,
		Dir:    dir,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Could not invoke git at all — this is a real error, not a
			// command outcome.
			return res, err
		}
		res.ExitCode = exitErr.ExitCode()
	}

	r.log.Debugw("git",
		"dir", dir,
		"args", args,
		"exit", res.ExitCode,
	)
	return res, nil
}
