package storage

import (
	"context"

	"github.com/modgate/modgate/pkg/api"
)

// Store persists module bindings. Implementations scope records by the
// tenant carried in the context; an empty tenant is single-tenant mode.
type Store interface {
	// SaveBinding persists a binding. Returns ErrConflict when a binding
	// with the same module id already exists.
	SaveBinding(ctx context.Context, b api.Binding) error

	// GetBinding retrieves a binding by module id. Returns ErrNotFound
	// when it does not exist.
	GetBinding(ctx context.Context, moduleID string) (api.Binding, error)

	// ListBindings returns all bindings sorted by module id.
	ListBindings(ctx context.Context) ([]api.Binding, error)

	// DeleteBinding removes a binding. Returns ErrNotFound when it does
	// not exist.
	DeleteBinding(ctx context.Context, moduleID string) error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}
