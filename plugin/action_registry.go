package plugin

import (
	"fmt"
	"sort"
	"sync"
)

// ActionRegistry maps plugin ids to their install actions.
type ActionRegistry struct {
	actions map[string]Action
	mu      sync.RWMutex
}

// NewActionRegistry creates an empty action registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{
		actions: make(map[string]Action),
	}
}

// Register stores an action. Returns error if the plugin already has one.
func (r *ActionRegistry) Register(pluginID string, action Action) error {
	if action == nil {
		return fmt.Errorf("nil action for plugin %q", pluginID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[pluginID]; exists {
		return fmt.Errorf("action for plugin %q already registered", pluginID)
	}
	r.actions[pluginID] = action
	return nil
}

// MustRegister stores an action, panicking on duplicate.
func (r *ActionRegistry) MustRegister(pluginID string, action Action) {
	if err := r.Register(pluginID, action); err != nil {
		panic(err)
	}
}

// Lookup returns the action for a plugin id.
func (r *ActionRegistry) Lookup(pluginID string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[pluginID]
	return a, ok
}

// IDs returns all plugin ids with a registered action, sorted.
func (r *ActionRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.actions))
	for id := range r.actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveAction retrieves an action with its concrete type.
func ResolveAction[T Action](r *ActionRegistry, pluginID string) (T, error) {
	var zero T
	a, ok := r.Lookup(pluginID)
	if !ok {
		return zero, fmt.Errorf("action for plugin %q not found", pluginID)
	}
	typed, ok := a.(T)
	if !ok {
		return zero, fmt.Errorf("action for plugin %q is %T, want %T", pluginID, a, zero)
	}
	return typed, nil
}
