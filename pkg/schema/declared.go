package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/modgate/modgate/pkg/routes"
)

// DeclaredBackend converts pre-built schema documents attached to a route
// out-of-band. It never inspects the handler signature: detection is the
// presence of a document in the inference context under the
// ContextDeclaredInput / ContextDeclaredOutput keys. This serves frameworks
// that attach request/response schemas separately from handlers.
//
// The document is compiled with santhosh-tekuri/jsonschema to surface
// invalid declarations, then normalized field by field into the supported
// schema subset. Unrecognized field shapes fall back to string with a
// logged warning.
type DeclaredBackend struct{}

var _ Backend = (*DeclaredBackend)(nil)

// Name returns the backend identifier.
func (b *DeclaredBackend) Name() string { return "declared" }

// CanHandleInput reports whether the context carries a declared input
// schema document.
func (b *DeclaredBackend) CanHandleInput(_ routes.Handler, ctx Context) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx[ContextDeclaredInput]
	return ok
}

// InferInput converts the declared input document and merges URL parameters
// in afterward.
func (b *DeclaredBackend) InferInput(h routes.Handler, urlParams []routes.Param, ctx Context) (map[string]any, error) {
	doc, err := compileDeclared(ctx[ContextDeclaredInput])
	if err != nil {
		return nil, fmt.Errorf("declared input schema for %q: %w", h.Name, err)
	}

	schema := convertDocument(doc)
	mergeURLParams(schema, urlParams)
	return schema, nil
}

// CanHandleOutput reports whether the context carries a declared output
// schema document.
func (b *DeclaredBackend) CanHandleOutput(_ routes.Handler, ctx Context) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx[ContextDeclaredOutput]
	return ok
}

// InferOutput converts the declared output document.
func (b *DeclaredBackend) InferOutput(h routes.Handler, ctx Context) (map[string]any, error) {
	doc, err := compileDeclared(ctx[ContextDeclaredOutput])
	if err != nil {
		return nil, fmt.Errorf("declared output schema for %q: %w", h.Name, err)
	}
	return convertDocument(doc), nil
}

// compileDeclared round-trips the declared document through JSON and
// compiles it, so malformed declarations are rejected at scan time rather
// than surfacing as broken module schemas later. The normalized document
// (plain JSON value types) is returned for conversion.
func compileDeclared(raw any) (map[string]any, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding schema document: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding schema document: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("declared.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	if _, err := c.Compile("declared.json"); err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema document must be an object, got %T", doc)
	}
	return m, nil
}

// convertDocument normalizes a declared object document into the supported
// schema subset: properties converted field by field, required taken from
// the document's own required list.
func convertDocument(doc map[string]any) map[string]any {
	props := map[string]any{}
	required := []string{}

	if declared, ok := doc["properties"].(map[string]any); ok {
		for name, raw := range declared {
			field, _ := raw.(map[string]any)
			props[name] = convertField(field)
		}
	}
	if declared, ok := doc["required"].([]any); ok {
		for _, name := range declared {
			if s, ok := name.(string); ok {
				required = append(required, s)
			}
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// convertField maps a single declared field to a schema fragment. Checks
// are ordered most-specific-first: recognized string formats before bare
// string, enum before bare string, and recursive array/object handling.
// Length and range constraints are layered on afterward.
func convertField(field map[string]any) map[string]any {
	if field == nil {
		slog.Warn("declared field is not an object, defaulting to string")
		return map[string]any{"type": "string"}
	}

	typ, _ := field["type"].(string)
	format, _ := field["format"].(string)

	var schema map[string]any
	switch {
	case typ == "string" && (format == "email" || format == "uuid" || format == "date-time" || format == "date"):
		schema = map[string]any{"type": "string", "format": format}
	case typ == "string" && field["enum"] != nil:
		schema = map[string]any{"type": "string", "enum": field["enum"]}
	case typ == "string":
		schema = map[string]any{"type": "string"}
	case typ == "integer":
		schema = map[string]any{"type": "integer"}
	case typ == "number":
		schema = map[string]any{"type": "number"}
	case typ == "boolean":
		schema = map[string]any{"type": "boolean"}
	case typ == "array":
		inner, _ := field["items"].(map[string]any)
		schema = map[string]any{"type": "array", "items": convertField(inner)}
	case typ == "object":
		schema = convertDocument(field)
	default:
		slog.Warn("unknown declared field type, defaulting to string", "type", typ)
		schema = map[string]any{"type": "string"}
	}

	// Validation constraints.
	for _, key := range []string{"minLength", "maxLength", "minimum", "maximum"} {
		if v, ok := field[key]; ok {
			schema[key] = v
		}
	}

	return schema
}
