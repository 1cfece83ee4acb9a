package site

import (
	"time"

	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/metrics"
)

// PageResult describes one written page.
type PageResult struct {
	Dir         string // source directory relative to the source root ("." at the root)
	Output      string // absolute path of the written page
	Title       string
	Depth       int
	Fingerprint string // content fingerprint of the written page
}

// BrokenLink is a local link whose target does not exist.
type BrokenLink struct {
	Dir    string
	Href   string
	Target string
}

// Report summarizes one generation pass.
type Report struct {
	Start time.Time
	End   time.Time

	Pages          []PageResult
	CopiedFiles    []string
	BrokenLinks    []BrokenLink
	MissingContent []string
	// Warnings holds every non-fatal condition in the order it was met.
	Warnings []error
	// Err is the fatal error that aborted the pass, if any.
	Err error

	StageDurations map[StageName]time.Duration
}

func newReport() *Report {
	return &Report{Start: time.Now(), StageDurations: make(map[StageName]time.Duration)}
}

func (r *Report) finish(err error) {
	r.End = time.Now()
	r.Err = err
}

// Duration is the wall time of the pass.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// CopyFailures returns the number of referenced files that could not be copied.
func (r *Report) CopyFailures() int {
	n := 0
	for _, w := range r.Warnings {
		if errors.HasCategory(w, errors.CategoryCopy) {
			n++
		}
	}
	return n
}

// Outcome derives the build outcome label.
func (r *Report) Outcome() string {
	switch {
	case r.Err != nil:
		return metrics.OutcomeFailed
	case len(r.Warnings) > 0:
		return metrics.OutcomeWarning
	default:
		return metrics.OutcomeSuccess
	}
}
