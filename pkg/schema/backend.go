package schema

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/modgate/modgate/pkg/routes"
)

// Context carries out-of-band inference input, such as pre-built schema
// documents attached to a route by the host framework.
type Context = map[string]any

// Context keys recognized by the declared-schema backend.
const (
	ContextDeclaredInput  = "declared_input"
	ContextDeclaredOutput = "declared_output"
)

// Backend is one schema-inference strategy in the dispatcher's priority
// chain. Detection (CanHandle*) and conversion (Infer*) must stay
// consistent: InferOutput fails with a backend-contract error only when
// CanHandleOutput over-claimed.
type Backend interface {
	// Name returns a short identifier used in logs.
	Name() string

	CanHandleInput(h routes.Handler, ctx Context) bool
	InferInput(h routes.Handler, urlParams []routes.Param, ctx Context) (map[string]any, error)

	CanHandleOutput(h routes.Handler, ctx Context) bool
	InferOutput(h routes.Handler, ctx Context) (map[string]any, error)
}

// Dispatcher routes schema inference to the first backend that claims a
// handler. The backend list is fixed at construction.
type Dispatcher struct {
	backends []Backend
}

// NewDispatcher creates a dispatcher over the given ordered backend list.
// With no arguments it uses DefaultBackends.
func NewDispatcher(backends ...Backend) *Dispatcher {
	if len(backends) == 0 {
		backends = DefaultBackends()
	}
	return &Dispatcher{backends: backends}
}

// DefaultBackends returns the standard priority chain: structured first,
// declared second, type hints last.
func DefaultBackends() []Backend {
	return []Backend{
		&StructuredBackend{},
		&DeclaredBackend{},
		&TypeHintsBackend{},
	}
}

// EmptyObjectSchema returns the fallback schema used when no backend
// matches.
func EmptyObjectSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// InferInputSchema returns the input schema for a handler, asking each
// backend in priority order. If no backend claims the handler, an empty
// object schema is returned.
func (d *Dispatcher) InferInputSchema(h routes.Handler, urlParams []routes.Param, ctx Context) (map[string]any, error) {
	for _, b := range d.backends {
		if b.CanHandleInput(h, ctx) {
			slog.Debug("input schema inference backend selected", "backend", b.Name(), "handler", h.Name)
			return b.InferInput(h, urlParams, ctx)
		}
	}
	slog.Debug("no input schema backend matched, using empty schema", "handler", h.Name)
	return EmptyObjectSchema(), nil
}

// InferOutputSchema returns the output schema for a handler, asking each
// backend in priority order. If no backend claims the handler, an empty
// object schema is returned.
func (d *Dispatcher) InferOutputSchema(h routes.Handler, ctx Context) (map[string]any, error) {
	for _, b := range d.backends {
		if b.CanHandleOutput(h, ctx) {
			slog.Debug("output schema inference backend selected", "backend", b.Name(), "handler", h.Name)
			return b.InferOutput(h, ctx)
		}
	}
	slog.Debug("no output schema backend matched, using empty schema", "handler", h.Name)
	return EmptyObjectSchema(), nil
}

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// funcType returns the reflected signature of a handler func, or nil if the
// handler is not a func.
func funcType(h routes.Handler) reflect.Type {
	if h.Func == nil {
		return nil
	}
	t := reflect.TypeOf(h.Func)
	if t.Kind() != reflect.Func {
		return nil
	}
	return t
}

// inputParams returns the handler's parameter types excluding a leading
// context.Context (the receiver analog).
func inputParams(ft reflect.Type) []reflect.Type {
	params := make([]reflect.Type, 0, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		if i == 0 && ft.In(0) == ctxType {
			continue
		}
		params = append(params, ft.In(i))
	}
	return params
}

// returnType returns the handler's first non-error result type, or nil when
// the handler returns nothing (or only an error).
func returnType(ft reflect.Type) reflect.Type {
	for i := 0; i < ft.NumOut(); i++ {
		if ft.Out(i) == errorType {
			continue
		}
		return ft.Out(i)
	}
	return nil
}

// mergeURLParams adds URL path parameters to an input schema as required
// properties, deduplicating the required list.
func mergeURLParams(schema map[string]any, urlParams []routes.Param) {
	if len(urlParams) == 0 {
		return
	}

	props := schema["properties"].(map[string]any)
	required, _ := schema["required"].([]string)

	seen := make(map[string]bool, len(required))
	for _, name := range required {
		seen[name] = true
	}

	for _, p := range urlParams {
		props[p.Name] = ConverterSchema(p.Kind)
		if !seen[p.Name] {
			required = append(required, p.Name)
			seen[p.Name] = true
		}
	}

	schema["required"] = required
}
