package linear

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the graft node ID for the progress renderer.
const NodeID graft.ID = "adapter.linear"

func init() {
	graft.Register(graft.Node[*Renderer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Renderer, error) {
			return NewRenderer(nil), nil
		},
	})
}
