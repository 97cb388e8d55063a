// Package transform runs registered transformers over parsed Go files.
package transform

import (
	"cmp"
	"fmt"
	"go/ast"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"go.trai.ch/zerr"
)

// VisitFunc rewrites a node. Returning the node unchanged is a no-op.
// A replacement must be a non-nil node of the same kind.
type VisitFunc func(st *State, n ast.Node) (ast.Node, error)

// Descriptor declares one transformer.
type Descriptor struct {
	// Owner is the provider that contributed the transformer.
	Owner string
	Name  string
	Phase domain.Phase
	Kind  domain.NodeKind
	// Priority orders a chain ascending; lower runs first.
	Priority int
	// Seq is the registration sequence number, assigned by the registry.
	Seq   int
	Visit VisitFunc
}

// ID returns the qualified transformer name.
func (d Descriptor) ID() string {
	if d.Owner == "" {
		return d.Name
	}
	return d.Owner + "." + d.Name
}

// Provider contributes a group of transformers under one configurable name.
type Provider interface {
	Name() string
	Transformers() []Descriptor
}

type chainKey struct {
	phase domain.Phase
	kind  domain.NodeKind
}

// Registry holds transformer descriptors and, once frozen, their ordered chains.
type Registry struct {
	mu          sync.RWMutex
	descriptors []Descriptor
	chains      map[chainKey][]Descriptor
	frozen      bool
	fingerprint string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a transformer. Registration fails once the registry is frozen.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" || d.Visit == nil || !d.Phase.Valid() || !d.Kind.Valid() {
		return zerr.With(domain.ErrInvalidTransformer, "transformer", d.ID())
	}
	// File transformers only run once the walk is done.
	if d.Kind == domain.KindFile && d.Phase != domain.PhaseAfter {
		return zerr.With(zerr.With(domain.ErrInvalidTransformer, "transformer", d.ID()), "reason", "file transformers run after")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return zerr.With(domain.ErrRegistryFrozen, "transformer", d.ID())
	}

	d.Seq = len(r.descriptors)
	r.descriptors = append(r.descriptors, d)
	return nil
}

// RegisterProvider registers every transformer of p under its name.
// A non-nil priority replaces the priorities the provider declared.
func (r *Registry) RegisterProvider(p Provider, priority *int) error {
	for _, d := range p.Transformers() {
		d.Owner = p.Name()
		if priority != nil {
			d.Priority = *priority
		}
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Freeze builds the ordered chains. Further registration fails.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return
	}

	chains := make(map[chainKey][]Descriptor)
	for _, d := range r.descriptors {
		key := chainKey{phase: d.Phase, kind: d.Kind}
		chains[key] = append(chains[key], d)
	}
	for _, chain := range chains {
		slices.SortStableFunc(chain, compareDescriptors)
	}

	r.chains = chains
	r.fingerprint = fingerprintOf(r.descriptors)
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Len returns the number of registered transformers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// Chain returns the transformers for phase and kind in execution order.
// Before Freeze the chain is computed on every call.
func (r *Registry) Chain(phase domain.Phase, kind domain.NodeKind) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.frozen {
		return r.chains[chainKey{phase: phase, kind: kind}]
	}

	var chain []Descriptor
	for _, d := range r.descriptors {
		if d.Phase == phase && d.Kind == kind {
			chain = append(chain, d)
		}
	}
	slices.SortStableFunc(chain, compareDescriptors)
	return chain
}

// VisitorsFor returns the visit functions of Chain(phase, kind).
func (r *Registry) VisitorsFor(phase domain.Phase, kind domain.NodeKind) []VisitFunc {
	chain := r.Chain(phase, kind)
	visitors := make([]VisitFunc, len(chain))
	for i, d := range chain {
		visitors[i] = d.Visit
	}
	return visitors
}

// Descriptors returns every registered transformer in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.descriptors)
}

// Fingerprint identifies the registered transformer set. Cache keys include it
// so outputs produced by a different transformer set are never reused.
func (r *Registry) Fingerprint() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.frozen {
		return r.fingerprint
	}
	return fingerprintOf(r.descriptors)
}

// Apply folds visitors over n, feeding each output to the next visitor.
func Apply(st *State, visitors []VisitFunc, n ast.Node) (ast.Node, error) {
	current := n
	for _, visit := range visitors {
		next, err := visit(st, current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func compareDescriptors(a, b Descriptor) int {
	return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.Seq, b.Seq))
}

func fingerprintOf(descriptors []Descriptor) string {
	h := xxhash.New()
	for _, d := range descriptors {
		_, _ = fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00", d.ID(), d.Phase, d.Kind, d.Priority)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
