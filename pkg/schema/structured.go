package schema

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/routes"
)

// StructuredBackend infers schemas from struct-typed handler parameters and
// return values. It is the highest-priority backend: struct definitions are
// the most precise signal and win over looser type-hint inference even when
// both would apply.
type StructuredBackend struct{}

var _ Backend = (*StructuredBackend)(nil)

// Name returns the backend identifier.
func (b *StructuredBackend) Name() string { return "structured" }

// ModelType extracts the structured model type from a parameter or return
// type. It unwraps pointers (the optional analog) and a single slice level,
// returning the struct type if one is found. time.Time and uuid-like types
// are scalars, not models.
func ModelType(t reflect.Type) reflect.Type {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice {
		t = t.Elem()
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
	}
	if t.Kind() != reflect.Struct || t == timeType || isUUIDType(t) {
		return nil
	}
	return t
}

// CanHandleInput reports whether any handler parameter is, or unwraps to, a
// struct type.
func (b *StructuredBackend) CanHandleInput(h routes.Handler, _ Context) bool {
	ft := funcType(h)
	if ft == nil {
		return false
	}
	for _, p := range inputParams(ft) {
		if ModelType(p) != nil {
			return true
		}
	}
	return false
}

// InferInput expands every struct parameter's field schema and merges them
// into one flat object schema. When several struct parameters share a field
// name the later parameter wins; this is a recorded policy, and the
// overwrite is logged at debug level. URL parameters are merged in
// afterward as additional required properties.
func (b *StructuredBackend) InferInput(h routes.Handler, urlParams []routes.Param, _ Context) (map[string]any, error) {
	ft := funcType(h)

	props := map[string]any{}
	required := []string{}

	for _, p := range inputParams(ft) {
		mt := ModelType(p)
		if mt == nil {
			continue
		}

		ms := StructSchema(mt)
		for name, prop := range ms["properties"].(map[string]any) {
			if _, exists := props[name]; exists {
				slog.Debug("struct parameter field overwrites earlier parameter's field",
					"handler", h.Name, "field", name, "model", mt.Name())
			}
			props[name] = prop
		}
		required = append(required, ms["required"].([]string)...)
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
	mergeURLParams(schema, urlParams)
	return schema, nil
}

// CanHandleOutput reports whether the handler's return type is, or unwraps
// to, a struct type.
func (b *StructuredBackend) CanHandleOutput(h routes.Handler, _ Context) bool {
	ft := funcType(h)
	if ft == nil {
		return false
	}
	return ModelType(returnType(ft)) != nil
}

// InferOutput converts the return type: a struct yields its own object
// schema, a slice of structs yields an array schema wrapping it, and a
// pointer to a struct yields the struct schema with nullability dropped
// (the schema does not represent the nil case).
func (b *StructuredBackend) InferOutput(h routes.Handler, _ Context) (map[string]any, error) {
	ft := funcType(h)
	if ft == nil {
		return nil, api.NewBackendContractError(
			fmt.Sprintf("cannot infer output schema: %q is not a func", h.Name))
	}

	rt := returnType(ft)
	mt := ModelType(rt)
	if mt == nil {
		return nil, api.NewBackendContractError(
			fmt.Sprintf("cannot infer output schema for return type of %q", h.Name))
	}

	// Unwrap pointers to see whether the model sits inside a slice.
	t := rt
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Slice {
		return map[string]any{
			"type":  "array",
			"items": StructSchema(mt),
		}, nil
	}
	return StructSchema(mt), nil
}
