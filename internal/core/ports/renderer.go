package ports

import "time"

// Renderer presents compile progress.
// It decouples telemetry collection from presentation.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// OnPlanEmit is called once the files of a batch are known.
	OnPlanEmit(files []string)

	// OnUnitStart is called when a file begins compiling.
	OnUnitStart(spanID, name string, startTime time.Time)

	// OnUnitComplete is called when a file finished compiling.
	// cached reports whether the output was served from the cache.
	OnUnitComplete(spanID string, endTime time.Time, cached bool, err error)
}
