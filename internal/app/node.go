package app

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/travetto/travetto-sub016/internal/adapters/config"  //nolint:depguard // Wired in app layer
	"github.com/travetto/travetto-sub016/internal/adapters/fs"      //nolint:depguard // Wired in app layer
	"github.com/travetto/travetto-sub016/internal/adapters/linear"  //nolint:depguard // Wired in app layer
	"github.com/travetto/travetto-sub016/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"github.com/travetto/travetto-sub016/internal/adapters/metrics" //nolint:depguard // Wired in app layer
	"github.com/travetto/travetto-sub016/internal/adapters/telemetry"
	"github.com/travetto/travetto-sub016/internal/adapters/watcher"
	"github.com/travetto/travetto-sub016/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			fs.WalkerNodeID,
			fs.HasherNodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
			linear.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{AppNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}
	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	m, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}
	renderer, err := graft.Dep[*linear.Renderer](ctx)
	if err != nil {
		return nil, err
	}
	newWatcher, err := graft.Dep[watcher.Factory](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, walker, hasher, tracer, m, renderer, newWatcher), nil
}
