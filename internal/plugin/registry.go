package plugin

import (
	"sync"

	"github.com/Dev-ALPM/imixs-workflow/internal/apperrors"
)

// Factory builds a fresh Plugin instance; the registry holds factories, not
// shared instances, so every chain run gets its own plugin state.
type Factory func() Plugin

// Registry is a named lookup table of plugin factories, populated at
// startup. Resolution is by declared name (the BPMN model's
// keypluginschain directive), never by reflection over a class name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build instantiates every named plugin, in order, failing on the first
// unregistered name.
func (r *Registry) Build(names []string) ([]Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(names))
	for _, name := range names {
		f, ok := r.factories[name]
		if !ok {
			return nil, apperrors.PluginError("plugin-registry", "UNKNOWN_PLUGIN", "no plugin registered for name "+name, nil)
		}
		out = append(out, f())
	}
	return out, nil
}
