// Package builtin provides the transformers shipped with the compiler.
package builtin

import (
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/engine/transform"
	"go.trai.ch/zerr"
)

// Provider names, as used in trv.yaml.
const (
	IdentityName   = "identity"
	DirectivesName = "directives"
	LazyName       = "lazy"
	LogSourceName  = "logsrc"
	RegisterName   = "register"
)

// Default priorities. Lower runs first within a chain.
const (
	identityPriority   = 10
	directivesPriority = 20
	lazyPriority       = 30
	logSourcePriority  = 40
	registerPriority   = 1000
)

type provider struct {
	name        string
	descriptors []transform.Descriptor
}

func (p provider) Name() string { return p.name }

func (p provider) Transformers() []transform.Descriptor { return p.descriptors }

// Providers returns every built-in provider in registration order.
func Providers() []transform.Provider {
	return []transform.Provider{
		identityProvider(),
		directivesProvider(),
		lazyProvider(),
		logSourceProvider(),
		registerProvider(),
	}
}

// Lookup returns the built-in provider called name.
func Lookup(name string) (transform.Provider, bool) {
	for _, p := range Providers() {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Install registers the built-in providers on r.
// Every provider is enabled unless cfgs disables it; a configured priority
// replaces the provider's default. Naming an unknown provider is an error.
func Install(r *transform.Registry, cfgs []domain.TransformerConfig) error {
	byName := make(map[string]domain.TransformerConfig, len(cfgs))
	for _, cfg := range cfgs {
		if _, ok := Lookup(cfg.Name); !ok {
			return zerr.With(domain.ErrUnknownTransformer, "transformer", cfg.Name)
		}
		byName[cfg.Name] = cfg
	}

	for _, p := range Providers() {
		cfg, configured := byName[p.Name()]
		if configured && !cfg.Enabled {
			continue
		}
		if err := r.RegisterProvider(p, cfg.Priority); err != nil {
			return err
		}
	}
	return nil
}
