// Package trigger notifies external JSON-RPC plugins when element content
// is saved.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PluginStatus represents the activation state of a plugin.
type PluginStatus string

const (
	PluginStatusActive   PluginStatus = "active"
	PluginStatusInactive PluginStatus = "inactive"
)

// ErrPluginNotFound is returned for unknown plugin ids.
var ErrPluginNotFound = errors.New("plugin not found")

// Plugin is an external JSON-RPC service that receives content.saved
// notifications for the element types it subscribes to.
type Plugin struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	Endpoint        string       `json:"endpoint"`
	SubscribedTypes []string     `json:"subscribed_types"`
	Status          PluginStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
}

// PluginRegistry is a thread-safe set of registered plugins, optionally
// write-through to a PluginStore.
type PluginRegistry struct {
	mu      sync.RWMutex
	plugins map[uuid.UUID]*Plugin
	store   PluginStore
}

// NewPluginRegistry creates an empty registry. At most one store is used;
// a nil store keeps plugins in memory only.
func NewPluginRegistry(store ...PluginStore) *PluginRegistry {
	r := &PluginRegistry{plugins: make(map[uuid.UUID]*Plugin)}
	if len(store) > 0 {
		r.store = store[0]
	}
	return r
}

// LoadAll replaces the in-memory set with the plugins held by the store.
func (r *PluginRegistry) LoadAll(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	plugins, err := r.store.ListPlugins(ctx)
	if err != nil {
		return fmt.Errorf("load plugins: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = make(map[uuid.UUID]*Plugin, len(plugins))
	for _, p := range plugins {
		r.plugins[p.ID] = p
	}
	return nil
}

// Register assigns an ID and creation timestamp and adds the plugin.
func (r *PluginRegistry) Register(p *Plugin) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	if p.Status == "" {
		p.Status = PluginStatusActive
	}

	if r.store != nil {
		if err := r.store.SavePlugin(context.Background(), p); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.ID] = p
	return nil
}

func (r *PluginRegistry) Get(id uuid.UUID) (*Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	if !ok {
		return nil, fmt.Errorf("plugin %s: %w", id, ErrPluginNotFound)
	}
	return p, nil
}

// List returns all registered plugins, oldest first.
func (r *PluginRegistry) List() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *PluginRegistry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[id]; !ok {
		return fmt.Errorf("plugin %s: %w", id, ErrPluginNotFound)
	}
	if r.store != nil {
		if err := r.store.DeletePlugin(context.Background(), id); err != nil {
			return err
		}
	}
	delete(r.plugins, id)
	return nil
}

// ForType returns all active plugins subscribed to the element type handle.
func (r *PluginRegistry) ForType(handle string) []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Plugin
	for _, p := range r.plugins {
		if p.Status != PluginStatusActive {
			continue
		}
		if slices.Contains(p.SubscribedTypes, handle) {
			out = append(out, p)
		}
	}
	return out
}

// Types returns the element type handles that active plugins subscribe to.
func (r *PluginRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, p := range r.plugins {
		if p.Status != PluginStatusActive {
			continue
		}
		for _, t := range p.SubscribedTypes {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
