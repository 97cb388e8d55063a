package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/travetto/travetto-sub016/internal/adapters/linear"
	"github.com/travetto/travetto-sub016/internal/core/ports"
)

// TracerNodeID is the unique identifier for the Telemetry adapter Graft node.
const TracerNodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{linear.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			renderer, err := graft.Dep[*linear.Renderer](ctx)
			if err != nil {
				return nil, err
			}
			return NewOTelTracer(NewProvider(renderer), renderer), nil
		},
	})
}
