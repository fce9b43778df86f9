package schema

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/modgate/modgate/pkg/routes"
)

// TypeHintsBackend converts bare signature types to JSON Schema. It is the
// fallback backend: any handler func with at least one non-context
// parameter is handled. Parameter names come from the route metadata, since
// Go reflection does not expose them.
type TypeHintsBackend struct{}

var _ Backend = (*TypeHintsBackend)(nil)

// Name returns the backend identifier.
func (b *TypeHintsBackend) Name() string { return "typehints" }

// CanHandleInput reports whether the handler func has any non-context
// parameters.
func (b *TypeHintsBackend) CanHandleInput(h routes.Handler, _ Context) bool {
	ft := funcType(h)
	if ft == nil {
		return false
	}
	return len(inputParams(ft)) > 0
}

// InferInput converts each parameter type to a schema property. Pointer
// parameters are optional (the schema of the element type, not required);
// everything else is required. URL parameters are merged in afterward.
func (b *TypeHintsBackend) InferInput(h routes.Handler, urlParams []routes.Param, _ Context) (map[string]any, error) {
	ft := funcType(h)

	props := map[string]any{}
	required := []string{}

	for i, p := range inputParams(ft) {
		name := paramName(h, i)
		props[name] = TypeSchema(p)
		if p.Kind() != reflect.Pointer {
			required = append(required, name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
	mergeURLParams(schema, urlParams)
	return schema, nil
}

// CanHandleOutput reports whether the handler func declares a non-error
// return value.
func (b *TypeHintsBackend) CanHandleOutput(h routes.Handler, _ Context) bool {
	ft := funcType(h)
	if ft == nil {
		return false
	}
	return returnType(ft) != nil
}

// InferOutput converts the first non-error return type. Without one, an
// empty object schema is returned.
func (b *TypeHintsBackend) InferOutput(h routes.Handler, _ Context) (map[string]any, error) {
	ft := funcType(h)
	if ft == nil {
		return EmptyObjectSchema(), nil
	}
	rt := returnType(ft)
	if rt == nil {
		return EmptyObjectSchema(), nil
	}
	return TypeSchema(rt), nil
}

// paramName resolves the declared name of the i-th non-context parameter.
// Handlers missing declared names get positional fallbacks, with a warning,
// so inference degrades instead of failing.
func paramName(h routes.Handler, i int) string {
	if i < len(h.Params) {
		return h.Params[i]
	}
	slog.Warn("handler parameter has no declared name, using positional fallback",
		"handler", h.Name, "index", i)
	return fmt.Sprintf("arg%d", i)
}
