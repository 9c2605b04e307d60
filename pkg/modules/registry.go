// pkg/modules/registry.go
package modules

import (
	"sort"
	"sync"
)

// Registry holds the module adapters known to one process. It is pure
// indirection: name-to-adapter lookup with no business logic, so the
// dispatch engine stays decoupled from the modules feeding it.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register stores an adapter under its module name. Registering the same
// name again replaces the earlier adapter.
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.ModuleName()] = adapter
}

// Get returns the adapter registered under moduleName.
func (r *Registry) Get(moduleName string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[moduleName]
	return adapter, ok
}

// Modules returns the registered module names, sorted for stable
// diagnostics output.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
