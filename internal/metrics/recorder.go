package metrics

import "time"

// ResultLabel enumerates stage and page result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeWarning  BuildOutcomeLabel = "warning"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for builds, their stages and pages.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObservePageDuration(d time.Duration)
	IncPageResult(result ResultLabel)
	AddBrokenLinks(n int)
	// AddAnchorIssues counts unresolved anchor references by validity
	// (file_not_found, anchor_not_found).
	AddAnchorIssues(validity string, n int)
	SetRenderConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) ObservePageDuration(time.Duration)          {}
func (NoopRecorder) IncPageResult(ResultLabel)                  {}
func (NoopRecorder) AddBrokenLinks(int)                         {}
func (NoopRecorder) AddAnchorIssues(string, int)                {}
func (NoopRecorder) SetRenderConcurrency(int)                   {}
