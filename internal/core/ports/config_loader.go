package ports

import "github.com/travetto/travetto-sub016/internal/core/domain"

// ConfigLoader defines the interface for loading the compiler configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load resolves the configuration for the workspace containing cwd.
	Load(cwd string) (*domain.Config, error)

	// DiscoverRoot walks up from cwd to find the workspace root.
	// Returns the directory containing trv.yaml or go.mod.
	DiscoverRoot(cwd string) (string, error)
}
