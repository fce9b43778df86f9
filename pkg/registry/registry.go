// Package registry holds callable modules and dispatches invocations.
//
// A registered module pairs its descriptor (schemas, target, annotations)
// with a bound handler. Call validates arguments against the module's input
// schema before invoking the handler, so handlers can trust the shape of
// what they receive.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/bridge"
	"github.com/modgate/modgate/pkg/debug"
	"github.com/modgate/modgate/pkg/observability"
)

// Descriptor pairs a module with its bound handler.
type Descriptor struct {
	Module api.Module
	Bound  *bridge.Bound
}

// Registry stores callable modules. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]Descriptor
	compiled map[string]*jsonschema.Schema
	order    []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byID:     make(map[string]Descriptor),
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Register adds a module. Registering an id that already exists replaces
// the previous entry in place and logs a warning; the module keeps its
// original position in listing order.
//
// The input schema is compiled once here so Call does not pay compilation
// cost per invocation. A schema that does not compile rejects the
// registration.
func (r *Registry) Register(d Descriptor) error {
	compiled, err := compileSchema(d.Module.InputSchema)
	if err != nil {
		observability.RegistrationsTotal.WithLabelValues("error").Inc()
		return api.NewInvalidConfigError(d.Module.ModuleID,
			fmt.Sprintf("input schema does not compile: %v", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := d.Module.ModuleID
	if _, exists := r.byID[id]; exists {
		slog.Warn("module id already registered, replacing", "module_id", id)
		observability.RegistrationsTotal.WithLabelValues("replaced").Inc()
	} else {
		r.order = append(r.order, id)
		observability.RegistrationsTotal.WithLabelValues("ok").Inc()
	}
	r.byID[id] = d
	r.compiled[id] = compiled
	observability.RegisteredModules.Set(float64(len(r.byID)))
	return nil
}

// Get returns the descriptor for a module id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// Unregister removes a module and reports whether it existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	delete(r.compiled, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	observability.RegisteredModules.Set(float64(len(r.byID)))
	return true
}

// List returns all descriptors in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Call validates args against the module's input schema and invokes its
// handler. Handler panics are converted to server errors rather than
// taking down the process.
func (r *Registry) Call(ctx context.Context, id string, args map[string]any) (result any, err error) {
	r.mu.RLock()
	d, ok := r.byID[id]
	compiled := r.compiled[id]
	r.mu.RUnlock()

	if !ok {
		return nil, api.NewNotFoundError(fmt.Sprintf("module %q is not registered", id))
	}

	if err := validateArgs(compiled, args); err != nil {
		return nil, err
	}

	if debug.TraceIsEnabled("registry") {
		payload, _ := json.Marshal(args)
		debug.Trace("registry", "module call", "module_id", id, "args", string(payload))
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("module handler panicked", "module_id", id, "panic", rec)
			result = nil
			err = api.NewServerError(fmt.Sprintf("module %q panicked", id))
		}
		observability.ObserveCall(id, start, err)
	}()

	return d.Bound.Call(ctx, args)
}

// compileSchema prepares a schema document for validation.
func compileSchema(doc map[string]any) (*jsonschema.Schema, error) {
	if doc == nil {
		doc = map[string]any{"type": "object"}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("input.json", parsed); err != nil {
		return nil, err
	}
	return c.Compile("input.json")
}

// validateArgs checks args against a compiled schema. Arguments pass
// through a JSON round trip first so native Go values (ints, structs) and
// decoded JSON values validate identically.
func validateArgs(schema *jsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return api.NewValidationError("", fmt.Sprintf("cannot encode arguments: %v", err))
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return api.NewValidationError("", fmt.Sprintf("cannot decode arguments: %v", err))
	}
	if err := schema.Validate(inst); err != nil {
		return api.NewValidationError("", err.Error())
	}
	return nil
}
