package typetag

import (
	"fmt"
	"path"
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = NewRegistry(DefaultOrigin)

// Entry is a single registration in a Registry snapshot.
type Entry struct {
	Type reflect.Type
	Tag  Tag
}

type name struct {
	module string
	name   string
}

// Registry maps Go types to qualified names.
//
// Types registered explicitly keep their registered module and name.
// Other named types fall back to reflection: the module is the last
// element of the package path and the name is the Go type name.
//
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	origin string
	names  map[reflect.Type]name
	types  map[name]reflect.Type
}

// NewRegistry creates an empty registry reporting the given origin.
func NewRegistry(origin string) *Registry {
	return &Registry{
		origin: origin,
		names:  make(map[reflect.Type]name),
		types:  make(map[name]reflect.Type),
	}
}

// Register associates t with module::name.
// Re-registering the same association is a no-op; a conflicting one is an error.
func (r *Registry) Register(t reflect.Type, module, typeName string) error {
	if t == nil || module == "" || typeName == "" {
		return fmt.Errorf("register: type, module and name are required")
	}
	n := name{module: module, name: typeName}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.names[t]; ok {
		if prev == n {
			return nil
		}
		return fmt.Errorf("register %s: already registered as %s::%s", t, prev.module, prev.name)
	}
	if other, ok := r.types[n]; ok {
		return fmt.Errorf("register %s: %s::%s already names %s", t, module, typeName, other)
	}
	r.names[t] = n
	r.types[n] = t
	return nil
}

// Tag returns the qualified identity of t.
func (r *Registry) Tag(t reflect.Type) Tag {
	if t == nil {
		return Tag{}
	}

	r.mu.RLock()
	n, ok := r.names[t]
	origin := r.origin
	r.mu.RUnlock()

	if ok {
		return Tag{Origin: origin, Module: n.module, Name: n.name}
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return Tag{Name: t.String()}
	}
	return Tag{Origin: origin, Module: path.Base(t.PkgPath()), Name: t.Name()}
}

// Resolve returns the registered type for a tag string.
// Only explicit registrations are resolvable.
func (r *Registry) Resolve(s string) (reflect.Type, bool) {
	tag, err := Parse(s)
	if err != nil || !tag.Qualified() {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if tag.Origin != r.origin {
		return nil, false
	}
	t, ok := r.types[name{module: tag.Module, name: tag.Name}]
	return t, ok
}

// SetOrigin changes the origin reported for qualified tags.
func (r *Registry) SetOrigin(origin string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.origin = origin
}

// Origin returns the configured origin.
func (r *Registry) Origin() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.origin
}

// Entries returns a snapshot of registrations sorted by tag string.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.names))
	for t, n := range r.names {
		out = append(out, Entry{Type: t, Tag: Tag{Origin: r.origin, Module: n.module, Name: n.name}})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Tag.String() < out[j].Tag.String() })
	return out
}

// Count returns the number of registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
