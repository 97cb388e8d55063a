package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/travetto/travetto-sub016/internal/core/ports"
)

// NodeID is the graft node ID for the logger.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Logger, error) {
			return New(), nil
		},
	})
}
