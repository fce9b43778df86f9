// Package memory provides an in-memory storage.Store for testing and
// lightweight deployments. Bindings are stored in memory and lost when the
// process restarts.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/storage"
)

// entry holds a stored binding and its tenant scope.
type entry struct {
	binding  api.Binding
	tenantID string
}

// Store is an in-memory binding store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// key scopes a module id by tenant so tenants cannot collide.
func key(tenantID, moduleID string) string {
	return tenantID + "\x00" + moduleID
}

// SaveBinding persists a binding in memory.
func (s *Store) SaveBinding(ctx context.Context, b api.Binding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenantID := storage.GetTenant(ctx)
	k := key(tenantID, b.ModuleID)
	if _, exists := s.entries[k]; exists {
		return storage.ErrConflict
	}
	s.entries[k] = &entry{binding: b, tenantID: tenantID}
	return nil
}

// GetBinding retrieves a binding by module id, scoped by tenant.
func (s *Store) GetBinding(ctx context.Context, moduleID string) (api.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key(storage.GetTenant(ctx), moduleID)]
	if !ok {
		return api.Binding{}, storage.ErrNotFound
	}
	return e.binding, nil
}

// ListBindings returns the tenant's bindings sorted by module id.
func (s *Store) ListBindings(ctx context.Context) ([]api.Binding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := storage.GetTenant(ctx)
	bindings := []api.Binding{}
	for _, e := range s.entries {
		if e.tenantID != tenantID {
			continue
		}
		bindings = append(bindings, e.binding)
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].ModuleID < bindings[j].ModuleID
	})
	return bindings, nil
}

// DeleteBinding removes a binding, scoped by tenant.
func (s *Store) DeleteBinding(ctx context.Context, moduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(storage.GetTenant(ctx), moduleID)
	if _, ok := s.entries[k]; !ok {
		return storage.ErrNotFound
	}
	delete(s.entries, k)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
