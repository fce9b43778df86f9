package schema

import (
	"log/slog"
	"reflect"
	"strings"
	"time"
)

// converterMap translates framework path-converter shorthand to JSON Schema
// fragments. Used by all backends to type URL path parameters.
var converterMap = map[string]map[string]any{
	"int":    {"type": "integer"},
	"float":  {"type": "number"},
	"string": {"type": "string"},
	"uuid":   {"type": "string", "format": "uuid"},
	"path":   {"type": "string"},
}

// ConverterSchema returns the JSON Schema fragment for a path-converter
// shorthand. Unknown converters fall back to string with a logged warning.
func ConverterSchema(kind string) map[string]any {
	if s, ok := converterMap[kind]; ok {
		return copySchema(s)
	}
	slog.Warn("unknown path converter type, defaulting to string", "converter", kind)
	return map[string]any{"type": "string"}
}

var timeType = reflect.TypeOf(time.Time{})

// TypeSchema converts a Go type to a JSON Schema fragment.
//
// Scalars map directly (string, integer kinds, floats, bool), time.Time
// maps to a date-time string, [16]byte UUID-like types map to a uuid
// string, slices and arrays map to "array" with recursive items, maps map
// to "object", pointers unwrap to their element type (nullability is not
// represented), and structs expand to an object schema from their exported
// fields. Anything unrecognized falls back to string with a logged warning.
func TypeSchema(t reflect.Type) map[string]any {
	if t == nil {
		slog.Warn("nil type, defaulting to string")
		return map[string]any{"type": "string"}
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == timeType {
		return map[string]any{"type": "string", "format": "date-time"}
	}
	if isUUIDType(t) {
		return map[string]any{"type": "string", "format": "uuid"}
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": TypeSchema(t.Elem())}
	case reflect.Map:
		return map[string]any{"type": "object"}
	case reflect.Struct:
		return StructSchema(t)
	}

	slog.Warn("unrecognized type, defaulting to string", "type", t.String())
	return map[string]any{"type": "string"}
}

// isUUIDType recognizes uuid-like named [16]byte array types (for example
// github.com/google/uuid.UUID) without importing any particular library.
func isUUIDType(t reflect.Type) bool {
	return t.Kind() == reflect.Array &&
		t.Len() == 16 &&
		t.Elem().Kind() == reflect.Uint8 &&
		strings.EqualFold(t.Name(), "uuid")
}

// StructSchema expands a struct type into an object schema built from its
// exported fields. Field names come from json tags; a field is required
// unless it is pointer-typed or its json tag carries the omitempty option.
func StructSchema(t reflect.Type) map[string]any {
	props := map[string]any{}
	required := []string{}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			// Embedded structs contribute their fields inline.
			embedded := StructSchema(f.Type)
			for name, prop := range embedded["properties"].(map[string]any) {
				props[name] = prop
			}
			required = append(required, embedded["required"].([]string)...)
			continue
		}

		name, omitempty, skip := jsonFieldName(f)
		if skip {
			continue
		}

		props[name] = TypeSchema(f.Type)
		if !omitempty && f.Type.Kind() != reflect.Pointer {
			required = append(required, name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// jsonFieldName resolves a struct field's wire name and omitempty flag from
// its json tag.
func jsonFieldName(f reflect.StructField) (name string, omitempty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name = f.Name
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, false
}

func copySchema(s map[string]any) map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
