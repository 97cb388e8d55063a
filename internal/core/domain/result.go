package domain

import (
	"errors"
	"maps"
	"slices"
	"time"
)

// CompileResult is the outcome of one orchestrated batch.
// Files are identified by their canonical source path.
type CompileResult struct {
	Succeeded map[string]struct{}
	Failed    map[string]error
	// AtRisk holds files that compiled after one of their dependencies failed.
	AtRisk map[string]struct{}
	// Cached holds succeeded files whose output came from the cache.
	Cached map[string]struct{}
	// Removed holds files pruned because they no longer exist.
	Removed    map[string]struct{}
	Generation uint64
	// Superseded is set when a newer batch committed first and this batch's results were discarded.
	Superseded bool
}

// NewCompileResult returns an empty result.
func NewCompileResult() *CompileResult {
	return &CompileResult{
		Succeeded: make(map[string]struct{}),
		Failed:    make(map[string]error),
		AtRisk:    make(map[string]struct{}),
		Cached:    make(map[string]struct{}),
		Removed:   make(map[string]struct{}),
	}
}

// OK reports whether no file failed.
func (r *CompileResult) OK() bool {
	return len(r.Failed) == 0
}

// SucceededFiles returns the succeeded files in sorted order.
func (r *CompileResult) SucceededFiles() []string {
	return slices.Sorted(maps.Keys(r.Succeeded))
}

// FailedFiles returns the failed files in sorted order.
func (r *CompileResult) FailedFiles() []string {
	return slices.Sorted(maps.Keys(r.Failed))
}

// Err joins the per-file failures under ErrBuildFailed, or returns nil.
func (r *CompileResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := []error{ErrBuildFailed}
	for _, file := range r.FailedFiles() {
		errs = append(errs, r.Failed[file])
	}
	return errors.Join(errs...)
}

// BatchSummary is the reportable digest of one batch.
type BatchSummary struct {
	Generation uint64            `json:"generation"`
	Succeeded  int               `json:"succeeded"`
	Cached     int               `json:"cached"`
	AtRisk     int               `json:"at_risk"`
	Removed    int               `json:"removed"`
	Failed     map[string]string `json:"failed,omitempty"`
	Superseded bool              `json:"superseded,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	DurationMS int64             `json:"duration_ms"`
}

// Summary digests the result of a batch that ran from started to finished.
func (r *CompileResult) Summary(started, finished time.Time) BatchSummary {
	s := BatchSummary{
		Generation: r.Generation,
		Succeeded:  len(r.Succeeded),
		Cached:     len(r.Cached),
		AtRisk:     len(r.AtRisk),
		Removed:    len(r.Removed),
		Superseded: r.Superseded,
		StartedAt:  started,
		DurationMS: finished.Sub(started).Milliseconds(),
	}
	if len(r.Failed) > 0 {
		s.Failed = make(map[string]string, len(r.Failed))
		for file, err := range r.Failed {
			s.Failed[file] = err.Error()
		}
	}
	return s
}
