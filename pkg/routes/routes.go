// Package routes defines the read-only route table consumed by the scanner.
//
// A Table is the Go-side stand-in for a web framework's routing map: each
// Route carries the path pattern, the declared HTTP verbs, an optional
// namespace group, and enough handler metadata for schema inference. Go
// reflection cannot recover parameter names or doc comments from a func
// value, so the Handler record carries those declaratively; struct-typed
// parameters are introspected via reflection and json tags.
package routes

// Route describes one registered route of the host application.
type Route struct {
	// Rule is the raw path pattern, e.g. "/items/<int:item_id>".
	// Converter syntax is preserved verbatim.
	Rule string

	// Methods lists the declared HTTP verbs for this route.
	Methods []string

	// Group is the namespace/group name ("" for ungrouped routes). It
	// prefixes the module id and becomes the module's tag.
	Group string

	// Name is the endpoint name. Routes named "static" (or "<group>.static")
	// are treated as synthetic non-API routes and skipped by the scanner.
	Name string

	// Handler is the callable bound to this route.
	Handler Handler

	// Extra carries out-of-band inference context, such as pre-built schema
	// documents under the "declared_input" / "declared_output" keys.
	Extra map[string]any
}

// Handler describes a route's callable together with the metadata Go
// reflection cannot provide.
type Handler struct {
	// Func is the handler function value. Its signature is introspected by
	// the schema backends and the flattening bridge. An optional leading
	// context.Context parameter is ignored for schema purposes.
	Func any

	// Name is the function name, e.g. "GetItem".
	Name string

	// Package is the declaring import path, e.g. "example.com/app/items".
	// Target references are formatted as "Package:Name".
	Package string

	// Doc is the handler's documentation text. The first line becomes the
	// module description.
	Doc string

	// Params names the handler's parameters positionally in signature
	// order, excluding any leading context.Context. Struct-typed
	// parameters still take a slot (the name is a placeholder; their
	// fields are discovered by reflection), so a struct preceding a
	// scalar does not shift the scalar's name.
	Params []string
}

// Table is the read-only enumeration of a host application's routes.
type Table []Route

// Param is one URL path parameter with its declared converter type.
type Param struct {
	Name string
	Kind string // converter shorthand: "int", "float", "uuid", "path", "string"
}
