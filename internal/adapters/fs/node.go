package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/travetto/travetto-sub016/internal/core/ports"
)

const (
	// WalkerNodeID is the graft node ID for the source walker.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// HasherNodeID is the graft node ID for the content hasher.
	HasherNodeID graft.ID = "adapter.fs.hasher"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Hasher, error) {
			return NewHasher(), nil
		},
	})
}
