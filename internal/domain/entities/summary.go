package entities

import "sync"

// FailureDetail names one failed item and why it failed.
type FailureDetail struct {
	Target string
	Reason string
}

// RunSummary is the aggregate result of one run. The counts always reflect
// every observed outcome, even when some items failed.
type RunSummary struct {
	ResolvedCount   int
	DownloadedCount int
	SkippedCount    int
	FailedCount     int
	Failures        []FailureDetail
}

// SummaryRecorder accumulates outcomes from the registry and extra-file
// pipelines. Safe for concurrent use.
type SummaryRecorder struct {
	mu      sync.Mutex
	summary RunSummary
}

// NewSummaryRecorder creates an empty recorder.
func NewSummaryRecorder() *SummaryRecorder {
	return &SummaryRecorder{}
}

// AddResolved counts one successfully resolved project.
func (r *SummaryRecorder) AddResolved() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.ResolvedCount++
}

// AddOutcome counts one download outcome, recording the failure detail when
// the status is failed.
func (r *SummaryRecorder) AddOutcome(outcome DownloadOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome.Status {
	case StatusSuccess:
		r.summary.DownloadedCount++
	case StatusSkipped:
		r.summary.SkippedCount++
	case StatusFailed:
		r.summary.FailedCount++
		r.summary.Failures = append(r.summary.Failures, FailureDetail{
			Target: outcome.TargetName,
			Reason: outcome.Detail,
		})
	}
}

// AddFailure counts one item that failed before any download was attempted
// (resolution misses, template errors, hook aborts).
func (r *SummaryRecorder) AddFailure(target string, err error) {
	r.AddOutcome(DownloadOutcome{
		TargetName: target,
		Status:     StatusFailed,
		Detail:     err.Error(),
	})
}

// AddSkip counts one item skipped without a download attempt.
func (r *SummaryRecorder) AddSkip(target, reason string) {
	r.AddOutcome(DownloadOutcome{
		TargetName: target,
		Status:     StatusSkipped,
		Detail:     reason,
	})
}

// Summary returns a copy of the accumulated summary.
func (r *SummaryRecorder) Summary() RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.summary
	out.Failures = append([]FailureDetail(nil), r.summary.Failures...)
	return out
}
