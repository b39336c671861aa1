package pipeline

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/mmr-tortoise/drover/internal/model"
)

// Report renders per-package outcome lines and aggregate counts to a
// writer. Color is applied per outcome class so an operator can scan a
// long run at a glance; fatih/color degrades to plain text when stdout
// is not a terminal.
type Report struct {
	w io.Writer

	ok   *color.Color
	warn *color.Color
	fail *color.Color
	dim  *color.Color
}

// NewReport constructs a Report writing to w.
func NewReport(w io.Writer) *Report {
	return &Report{
		w:    w,
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
		dim:  color.New(color.Faint),
	}
}

// Stage prints one stage's outcomes followed by its summary line.
func (r *Report) Stage(stage model.Stage, outcomes []model.PackageOutcome) {
	fmt.Fprintf(r.w, "[%s]\n", stage)
	for _, out := range outcomes {
		r.line(out)
	}
	s := Summarize(outcomes)
	fmt.Fprintf(r.w, "  processed: %d", s.Processed)
	if s.Skipped > 0 {
		fmt.Fprintf(r.w, ", skipped: %d", s.Skipped)
	}
	if s.Failed > 0 {
		r.fail.Fprintf(r.w, ", failed: %d", s.Failed)
	}
	fmt.Fprintln(r.w)
}

// Run prints the outcomes of a full pipeline run in stage order.
func (r *Report) Run(results map[model.Stage][]model.PackageOutcome) {
	for _, stage := range model.Stages() {
		outcomes, ok := results[stage]
		if !ok {
			continue
		}
		r.Stage(stage, outcomes)
	}
}

func (r *Report) line(out model.PackageOutcome) {
	switch {
	case out.Err != nil:
		r.fail.Fprintf(r.w, "  ✗ %-20s %v\n", out.Name, out.Err)
	case out.Skipped:
		r.dim.Fprintf(r.w, "  - %-20s %s\n", out.Name, out.Reason)
	default:
		detail := out.Reason
		if out.Stash == model.StashKept {
			detail = joinDetail(detail, "stash kept")
		}
		if summary := out.Status.Summary(); summary != "ok" || detail == "" {
			detail = joinDetail(detail, summary)
		}
		if out.PushDone {
			detail = joinDetail(detail, "pushed")
		}
		r.ok.Fprintf(r.w, "  ✓ %-20s %s\n", out.Name, detail)
	}
}

func joinDetail(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + "; " + b
}
