// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/travetto/travetto-sub016/internal/adapters/config"
	_ "github.com/travetto/travetto-sub016/internal/adapters/fs"
	_ "github.com/travetto/travetto-sub016/internal/adapters/linear"
	_ "github.com/travetto/travetto-sub016/internal/adapters/logger"
	_ "github.com/travetto/travetto-sub016/internal/adapters/metrics"
	_ "github.com/travetto/travetto-sub016/internal/adapters/telemetry"
	_ "github.com/travetto/travetto-sub016/internal/adapters/watcher"
	// Register app nodes.
	_ "github.com/travetto/travetto-sub016/internal/app"
)
