package writer

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/routes"
)

// Info carries document-level OpenAPI metadata.
type Info struct {
	Title   string
	Version string
}

// rulePlaceholder matches one route rule parameter, converter prefix and
// all, for conversion to OpenAPI {name} syntax.
var rulePlaceholder = regexp.MustCompile(`<(?:[a-zA-Z_][a-zA-Z0-9_]*:)?([a-zA-Z_][a-zA-Z0-9_]*)>`)

// WriteOpenAPI emits the module catalog as an OpenAPI 3.1 document.
//
// Each module becomes one operation. GET and DELETE operations take their
// non-path inputs as query parameters; other verbs take a JSON request
// body. Behavioral annotations travel in an x-apcore-annotations extension
// on every operation.
func WriteOpenAPI(w io.Writer, modules []api.Module, info Info) error {
	if info.Title == "" {
		info.Title = "modgate modules"
	}
	if info.Version == "" {
		info.Version = api.DefaultVersion
	}

	paths := map[string]any{}
	for _, m := range modules {
		path := openAPIPath(m.URLRule)
		item, _ := paths[path].(map[string]any)
		if item == nil {
			item = map[string]any{}
			paths[path] = item
		}
		item[strings.ToLower(m.HTTPMethod)] = operation(m)
	}

	doc := map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   info.Title,
			"version": info.Version,
		},
		"paths": paths,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding OpenAPI document: %w", err)
	}
	return nil
}

// openAPIPath converts a route rule to OpenAPI path syntax,
// "/items/<int:item_id>" becoming "/items/{item_id}".
func openAPIPath(rule string) string {
	return rulePlaceholder.ReplaceAllString(rule, "{$1}")
}

// operation builds the OpenAPI operation object for one module.
func operation(m api.Module) map[string]any {
	op := map[string]any{
		"operationId":          m.ModuleID,
		"summary":              m.Description,
		"x-apcore-annotations": m.Annotations,
		"responses": map[string]any{
			"200": map[string]any{
				"description": "success",
				"content": map[string]any{
					"application/json": map[string]any{"schema": m.OutputSchema},
				},
			},
		},
	}
	if m.Documentation != "" && m.Documentation != m.Description {
		op["description"] = m.Documentation
	}
	if len(m.Tags) > 0 {
		op["tags"] = m.Tags
	}

	pathParams := map[string]bool{}
	for _, p := range routes.ExtractParams(m.URLRule) {
		pathParams[p.Name] = true
	}

	switch m.HTTPMethod {
	case "GET", "DELETE":
		op["parameters"] = parameterList(m, pathParams)
	default:
		if params := pathParameterList(m, pathParams); len(params) > 0 {
			op["parameters"] = params
		}
		op["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{"schema": bodySchema(m, pathParams)},
			},
		}
	}
	return op
}

// parameterList expands the full input schema into path and query
// parameters.
func parameterList(m api.Module, pathParams map[string]bool) []map[string]any {
	props := properties(m.InputSchema)
	required := requiredSet(m.InputSchema)

	params := []map[string]any{}
	for _, name := range sortedKeys(props) {
		in := "query"
		req := required[name]
		if pathParams[name] {
			in = "path"
			req = true
		}
		params = append(params, map[string]any{
			"name":     name,
			"in":       in,
			"required": req,
			"schema":   props[name],
		})
	}
	return params
}

// pathParameterList emits only the path parameters; body verbs carry the
// rest in the request body.
func pathParameterList(m api.Module, pathParams map[string]bool) []map[string]any {
	props := properties(m.InputSchema)

	params := []map[string]any{}
	for _, name := range sortedKeys(props) {
		if !pathParams[name] {
			continue
		}
		params = append(params, map[string]any{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   props[name],
		})
	}
	return params
}

// bodySchema strips path parameters out of the input schema so they are not
// duplicated between the path and the body.
func bodySchema(m api.Module, pathParams map[string]bool) map[string]any {
	props := properties(m.InputSchema)
	required := requiredList(m.InputSchema)

	bodyProps := map[string]any{}
	for name, p := range props {
		if pathParams[name] {
			continue
		}
		bodyProps[name] = p
	}
	bodyRequired := []string{}
	for _, name := range required {
		if pathParams[name] {
			continue
		}
		bodyRequired = append(bodyRequired, name)
	}

	schema := map[string]any{
		"type":       "object",
		"properties": bodyProps,
	}
	if len(bodyRequired) > 0 {
		schema["required"] = bodyRequired
	}
	return schema
}

func properties(schema map[string]any) map[string]any {
	props, _ := schema["properties"].(map[string]any)
	return props
}

// requiredList reads the required names regardless of whether the schema
// came from inference ([]string) or a JSON round trip ([]any).
func requiredList(schema map[string]any) []string {
	switch v := schema["required"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func requiredSet(schema map[string]any) map[string]bool {
	set := map[string]bool{}
	for _, name := range requiredList(schema) {
		set[name] = true
	}
	return set
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
