package api

// DefaultVersion is assigned to scanned modules that don't declare one.
const DefaultVersion = "1.0.0"

// Annotations carries behavioral hints for one module, inferred from the
// HTTP verb. They are hints only: the underlying handler may not honor
// REST semantics.
type Annotations struct {
	ReadOnly         bool `json:"readonly" yaml:"readonly"`
	Destructive      bool `json:"destructive" yaml:"destructive"`
	Idempotent       bool `json:"idempotent" yaml:"idempotent"`
	RequiresApproval bool `json:"requires_approval" yaml:"requires_approval"`
}

// Module is the result of scanning a single (route, HTTP verb) pair.
//
// Within one scan pass, ModuleID values are pairwise unique after
// deduplication. InputSchema is never nil; OutputSchema may be an empty
// object schema. Instances are never mutated after creation: deduplication
// produces a new instance with an adjusted ModuleID.
type Module struct {
	// ModuleID is the unique module identifier, e.g. "users.get_user.get".
	ModuleID string `json:"module_id" yaml:"module_id"`

	// Description is the first line of the handler doc, or a generated
	// "VERB rule" fallback.
	Description string `json:"description" yaml:"description"`

	// Documentation is the full handler doc text, or empty.
	Documentation string `json:"documentation,omitempty" yaml:"documentation,omitempty"`

	// InputSchema and OutputSchema are JSON Schema objects.
	InputSchema  map[string]any `json:"input_schema" yaml:"input_schema"`
	OutputSchema map[string]any `json:"output_schema" yaml:"output_schema"`

	// Tags lists grouping labels derived from the route namespace.
	Tags []string `json:"tags" yaml:"tags"`

	// Target is the "pkgpath:FuncName" reference used to re-resolve the
	// underlying callable.
	Target string `json:"target" yaml:"target"`

	// HTTPMethod is the uppercase verb string.
	HTTPMethod string `json:"http_method" yaml:"http_method"`

	// URLRule is the raw path pattern, framework syntax preserved verbatim.
	URLRule string `json:"url_rule" yaml:"url_rule"`

	// Version is the module version, defaulting to DefaultVersion.
	Version string `json:"version" yaml:"version"`

	// Annotations holds the verb-derived behavioral hints.
	Annotations Annotations `json:"annotations" yaml:"annotations"`

	// Metadata is an open string-keyed bag carrying provenance.
	Metadata map[string]string `json:"metadata" yaml:"metadata"`

	// Warnings lists non-fatal scan issues, e.g. "no schema inferred".
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// WithModuleID returns a copy of m with an adjusted module id. The receiver
// is not modified.
func (m Module) WithModuleID(id string) Module {
	m.ModuleID = id
	return m
}

// Binding is the serialized, registry-ready record describing one module.
// External writers (JSON, YAML, OpenAPI) depend on this exact field set.
type Binding struct {
	ModuleID      string            `json:"module_id" yaml:"module_id"`
	Description   string            `json:"description" yaml:"description"`
	Documentation string            `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	HTTPMethod    string            `json:"http_method" yaml:"http_method"`
	URLRule       string            `json:"url_rule" yaml:"url_rule"`
	Tags          []string          `json:"tags" yaml:"tags"`
	Version       string            `json:"version" yaml:"version"`
	Target        string            `json:"target" yaml:"target"`
	Annotations   Annotations       `json:"annotations" yaml:"annotations"`
	Metadata      map[string]string `json:"metadata" yaml:"metadata"`
	InputSchema   map[string]any    `json:"input_schema" yaml:"input_schema"`
	OutputSchema  map[string]any    `json:"output_schema" yaml:"output_schema"`
}

// ToBinding converts a Module to its serialized binding record.
func (m Module) ToBinding() Binding {
	return Binding{
		ModuleID:      m.ModuleID,
		Description:   m.Description,
		Documentation: m.Documentation,
		HTTPMethod:    m.HTTPMethod,
		URLRule:       m.URLRule,
		Tags:          m.Tags,
		Version:       m.Version,
		Target:        m.Target,
		Annotations:   m.Annotations,
		Metadata:      m.Metadata,
		InputSchema:   m.InputSchema,
		OutputSchema:  m.OutputSchema,
	}
}
