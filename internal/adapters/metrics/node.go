package metrics

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/travetto/travetto-sub016/internal/core/ports"
)

// NodeID is the graft node ID for the metrics collector.
const NodeID graft.ID = "adapter.metrics"

func init() {
	graft.Register(graft.Node[ports.Metrics]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Metrics, error) {
			return New(), nil
		},
	})
}
