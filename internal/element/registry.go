package element

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps element type handles to their definitions.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Register adds an element type. Handles must be unique.
func (r *Registry) Register(t *Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[t.Handle]; ok {
		return fmt.Errorf("element type %q already registered", t.Handle)
	}
	r.types[t.Handle] = t
	return nil
}

// TypeFor returns the element type registered under handle.
func (r *Registry) TypeFor(handle string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[handle]
	if !ok {
		return nil, fmt.Errorf("no element type registered for %q", handle)
	}
	return t, nil
}

// Types returns all registered types ordered by handle.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}
