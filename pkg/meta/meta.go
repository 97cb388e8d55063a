// Package meta is the runtime registry compiled files register their declarations with.
//
// Compiled outputs call Register from an init function, so by the time main runs
// the registry describes every compiled file of the program.
package meta

import (
	"cmp"
	"maps"
	"slices"
	"sync"
)

// Tag is a directive attached to a declaration with a //trv:<name> comment.
type Tag struct {
	Name string
	Args map[string]string
}

// Method describes a method of a registered type.
type Method struct {
	Name string
	Hash string
	Tags []Tag
}

// Type describes a named type declared at package scope.
type Type struct {
	Name    string
	Hash    string
	Tags    []Tag
	Methods []Method
}

// Func describes a package level function.
type Func struct {
	Name string
	Hash string
	Tags []Tag
}

// File holds everything one compiled file registered.
type File struct {
	// Module is the module id of the source file.
	Module  string
	Package string
	Types   []Type
	Funcs   []Func
}

// Type returns the type named name.
func (f File) Type(name string) (Type, bool) {
	for _, t := range f.Types {
		if t.Name == name {
			return t, true
		}
	}
	return Type{}, false
}

// Changed lists the declarations whose hash differs between prev and f,
// including declarations only one of them has. Methods are named Type.Method.
func (f File) Changed(prev File) []string {
	hashes := func(file File) map[string]string {
		out := make(map[string]string)
		for _, t := range file.Types {
			out[t.Name] = t.Hash
			for _, m := range t.Methods {
				out[t.Name+"."+m.Name] = m.Hash
			}
		}
		for _, fn := range file.Funcs {
			out[fn.Name] = fn.Hash
		}
		return out
	}

	now, before := hashes(f), hashes(prev)
	var changed []string
	for name, hash := range now {
		if old, ok := before[name]; !ok || old != hash {
			changed = append(changed, name)
		}
	}
	for name := range before {
		if _, ok := now[name]; !ok {
			changed = append(changed, name)
		}
	}
	slices.Sort(changed)
	return changed
}

// HasTag reports whether tags contain name.
func HasTag(tags []Tag, name string) bool {
	return slices.ContainsFunc(tags, func(t Tag) bool { return t.Name == name })
}

// TaggedType is a type found by a tag query.
type TaggedType struct {
	Module  string
	Package string
	Type    Type
}

// Listener is notified when a file registers or re-registers.
// prev is the zero File on first registration.
type Listener func(file, prev File)

// Registry holds registered files keyed by module id.
type Registry struct {
	mu        sync.RWMutex
	files     map[string]File
	listeners []Listener
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{files: make(map[string]File)}
}

// Register records f, replacing an earlier registration of the same module.
func (r *Registry) Register(f File) {
	r.mu.Lock()
	prev := r.files[f.Module]
	r.files[f.Module] = f
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	for _, l := range listeners {
		l(f, prev)
	}
}

// OnRegister adds a listener for later registrations.
func (r *Registry) OnRegister(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Lookup returns the file registered under module.
func (r *Registry) Lookup(module string) (File, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[module]
	return f, ok
}

// Files returns every registered file ordered by module id.
func (r *Registry) Files() []File {
	r.mu.RLock()
	defer r.mu.RUnlock()
	files := slices.Collect(maps.Values(r.files))
	slices.SortFunc(files, func(a, b File) int { return cmp.Compare(a.Module, b.Module) })
	return files
}

// Tagged returns every registered type carrying tag.
func (r *Registry) Tagged(tag string) []TaggedType {
	var out []TaggedType
	for _, f := range r.Files() {
		for _, t := range f.Types {
			if HasTag(t.Tags, tag) {
				out = append(out, TaggedType{Module: f.Module, Package: f.Package, Type: t})
			}
		}
	}
	return out
}

// Default is the registry compiled files register with.
var Default = NewRegistry()

// Register records f in the default registry.
func Register(f File) {
	Default.Register(f)
}

// Lazy marks a package reference that is resolved at compile time.
// The compiler rewrites spec to the package's import path, so at runtime
// Lazy only returns its argument.
func Lazy(spec string) string {
	return spec
}
