package metrics

import "time"

// Outcome labels for builds.
const (
	OutcomeSuccess = "success"
	OutcomeWarning = "warning"
	OutcomeFailed  = "failed"
)

// Recorder defines observability hooks for generation. All methods must be
// cheap; the walker calls them once per directory and link.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string)
	IncPages()
	IncLink(kind string)
	IncCopy(success bool)
	IncWarning(category string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) IncPages()                                  {}
func (NoopRecorder) IncLink(string)                             {}
func (NoopRecorder) IncCopy(bool)                               {}
func (NoopRecorder) IncWarning(string)                          {}
