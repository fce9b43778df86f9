// Package target resolves module target strings of the form
// "package/path:HandlerName" back to registered handlers.
//
// Handlers must be registered explicitly before resolution; there is no
// runtime package loading. Registering the route table that produced the
// modules is the usual way to populate a resolver.
package target

import (
	"fmt"
	"strings"
	"sync"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/routes"
)

// Resolver maps target strings to handlers. Safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	handlers map[string]routes.Handler
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{handlers: make(map[string]routes.Handler)}
}

// Default is the process-wide resolver used when no explicit resolver is
// configured.
var Default = NewResolver()

// Register makes a handler resolvable under its Package:Name target.
// Re-registering the same target replaces the previous handler.
func (r *Resolver) Register(h routes.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Package+":"+h.Name] = h
}

// AddTable registers every handler in a route table.
func (r *Resolver) AddTable(table routes.Table) {
	for _, route := range table {
		r.Register(route.Handler)
	}
}

// Resolve looks up the handler for a target string.
//
// A target whose package part is unknown yields an unresolvable module
// error; a known package with an unknown handler name yields an
// unresolvable attribute error. The distinction matters to callers that
// want to report configuration problems precisely.
func (r *Resolver) Resolve(target string) (routes.Handler, error) {
	pkg, name, ok := strings.Cut(target, ":")
	if !ok || pkg == "" || name == "" {
		return routes.Handler{}, api.NewUnresolvableModuleError(target,
			fmt.Sprintf("malformed target %q, want \"package:handler\"", target))
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.handlers[target]; ok {
		return h, nil
	}

	for key := range r.handlers {
		if p, _, _ := strings.Cut(key, ":"); p == pkg {
			return routes.Handler{}, api.NewUnresolvableAttributeError(target,
				fmt.Sprintf("package %q has no handler %q", pkg, name))
		}
	}
	return routes.Handler{}, api.NewUnresolvableModuleError(target,
		fmt.Sprintf("unknown package %q", pkg))
}
