package ports

import (
	"net/http"
	"time"
)

// Outcome labels how a file left a compile batch.
type Outcome string

const (
	// OutcomeCompiled means the file was transformed.
	OutcomeCompiled Outcome = "compiled"
	// OutcomeCached means the output came from the cache.
	OutcomeCached Outcome = "cached"
	// OutcomeFailed means the file failed.
	OutcomeFailed Outcome = "failed"
)

// Metrics records compiler activity.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// FileCompiled records one file leaving a batch.
	FileCompiled(outcome Outcome, elapsed time.Duration)
	// CacheLookup records a cache lookup result: "hit", "miss" or "corrupt".
	CacheLookup(result string)
	// BatchFinished records a batch status and the manifest generation after it.
	BatchFinished(status string, generation uint64)
	// Handler exposes the metrics over HTTP.
	Handler() http.Handler
}
