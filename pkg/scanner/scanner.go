// Package scanner enumerates a route table and produces one module
// descriptor per (route, HTTP verb) pair.
//
// The scanner is stateless: every Scan call produces a fresh module list
// from the table it is given, so identical inputs yield identical outputs.
package scanner

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/debug"
	"github.com/modgate/modgate/pkg/observability"
	"github.com/modgate/modgate/pkg/routes"
	"github.com/modgate/modgate/pkg/schema"
)

// SourceName identifies this scanner in module provenance metadata.
const SourceName = "native"

// idSanitizer replaces every character outside [A-Za-z0-9.] in a module id.
var idSanitizer = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// skipVerbs are synthetic verbs excluded from scanning.
var skipVerbs = map[string]bool{"HEAD": true, "OPTIONS": true}

// Scanner produces module descriptors from a route table using a schema
// dispatcher for input/output inference.
type Scanner struct {
	dispatcher *schema.Dispatcher
}

// New creates a Scanner. A nil dispatcher selects the default backend chain.
func New(dispatcher *schema.Dispatcher) *Scanner {
	if dispatcher == nil {
		dispatcher = schema.NewDispatcher()
	}
	return &Scanner{dispatcher: dispatcher}
}

// Options controls a single scan pass.
type Options struct {
	// Include keeps only modules whose final id matches this regex.
	Include string

	// Exclude removes modules whose final id matches this regex. Applied
	// after Include.
	Exclude string
}

// Scan walks every route and verb and returns the deduplicated, filtered
// module list.
//
// Invalid filter patterns surface before any scanning work. Inference gaps
// degrade to per-module warnings; only backend contract violations abort
// the scan.
func (s *Scanner) Scan(table routes.Table, opts Options) ([]api.Module, error) {
	// Compile filters up front so configuration errors surface before any
	// scanning work begins.
	include, exclude, err := compileFilters(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var modules []api.Module

	for _, route := range table {
		if isStaticRoute(route) {
			continue
		}

		verbs := apiVerbs(route.Methods)
		if len(verbs) == 0 {
			continue
		}

		urlParams := routes.ExtractParams(route.Rule)

		for _, verb := range verbs {
			m, err := s.scanRoute(route, verb, urlParams)
			if err != nil {
				return nil, err
			}
			debug.Log("scanner", "module detected",
				"module_id", m.ModuleID, "verb", verb, "rule", route.Rule)
			modules = append(modules, m)
		}
	}

	modules = deduplicateIDs(modules)
	modules = filterModules(modules, include, exclude)

	observability.ScansTotal.Inc()
	observability.ScanDuration.Observe(time.Since(start).Seconds())
	observability.ModulesScannedTotal.Add(float64(len(modules)))

	slog.Info("route scan complete", "modules", len(modules), "duration", time.Since(start))
	return modules, nil
}

// scanRoute builds the module descriptor for one (route, verb) pair.
func (s *Scanner) scanRoute(route routes.Route, verb string, urlParams []routes.Param) (api.Module, error) {
	h := route.Handler

	inputSchema, err := s.dispatcher.InferInputSchema(h, urlParams, route.Extra)
	if err != nil {
		return api.Module{}, fmt.Errorf("inferring input schema for %s %s: %w", verb, route.Rule, err)
	}
	outputSchema, err := s.dispatcher.InferOutputSchema(h, route.Extra)
	if err != nil {
		return api.Module{}, fmt.Errorf("inferring output schema for %s %s: %w", verb, route.Rule, err)
	}

	var warnings []string
	if props, _ := inputSchema["properties"].(map[string]any); len(props) == 0 {
		warnings = append(warnings,
			fmt.Sprintf("route '%s %s' has no usable parameter types (input schema is empty)", verb, route.Rule))
		observability.ScanWarningsTotal.Inc()
	}

	return api.Module{
		ModuleID:      moduleID(route, verb),
		Description:   description(h, route, verb),
		Documentation: strings.TrimSpace(h.Doc),
		InputSchema:   inputSchema,
		OutputSchema:  outputSchema,
		Tags:          tags(route),
		Target:        h.Package + ":" + h.Name,
		HTTPMethod:    verb,
		URLRule:       route.Rule,
		Version:       api.DefaultVersion,
		Annotations:   inferAnnotations(verb),
		Metadata:      map[string]string{"source": SourceName},
		Warnings:      warnings,
	}, nil
}

// compileFilters validates the include/exclude patterns.
func compileFilters(opts Options) (include, exclude *regexp.Regexp, err error) {
	if opts.Include != "" {
		include, err = regexp.Compile(opts.Include)
		if err != nil {
			return nil, nil, api.NewInvalidConfigError("include", fmt.Sprintf("invalid include pattern: %v", err))
		}
	}
	if opts.Exclude != "" {
		exclude, err = regexp.Compile(opts.Exclude)
		if err != nil {
			return nil, nil, api.NewInvalidConfigError("exclude", fmt.Sprintf("invalid exclude pattern: %v", err))
		}
	}
	return include, exclude, nil
}

// isStaticRoute recognizes synthetic non-API routes such as static file
// serving.
func isStaticRoute(route routes.Route) bool {
	return route.Name == "static" || strings.HasSuffix(route.Name, ".static")
}

// apiVerbs returns the route's verbs minus HEAD/OPTIONS, uppercased and in
// stable sorted order.
func apiVerbs(methods []string) []string {
	var verbs []string
	for _, m := range methods {
		v := strings.ToUpper(m)
		if skipVerbs[v] {
			continue
		}
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)
	return verbs
}

// moduleID derives the module identifier: {group}.{handler}.{verb} for
// grouped routes, {handler}.{verb} otherwise, with every character outside
// [A-Za-z0-9.] replaced by underscore.
func moduleID(route routes.Route, verb string) string {
	id := route.Handler.Name + "." + strings.ToLower(verb)
	if route.Group != "" {
		id = route.Group + "." + id
	}
	return idSanitizer.ReplaceAllString(id, "_")
}

// description returns the first line of the handler doc, or a generated
// "VERB rule" fallback.
func description(h routes.Handler, route routes.Route, verb string) string {
	doc := strings.TrimSpace(h.Doc)
	if doc != "" {
		line, _, _ := strings.Cut(doc, "\n")
		return strings.TrimSpace(line)
	}
	return verb + " " + route.Rule
}

// tags derives grouping labels from the route namespace.
func tags(route routes.Route) []string {
	if route.Group != "" {
		return []string{route.Group}
	}
	return []string{}
}

// inferAnnotations maps the HTTP verb to behavioral hints:
// GET readonly, DELETE destructive, PUT idempotent, everything else
// all-false defaults. These are heuristics, not guarantees.
func inferAnnotations(verb string) api.Annotations {
	switch verb {
	case "GET":
		return api.Annotations{ReadOnly: true}
	case "DELETE":
		return api.Annotations{Destructive: true}
	case "PUT":
		return api.Annotations{Idempotent: true}
	}
	return api.Annotations{}
}

// deduplicateIDs resolves module id collisions by appending _2, _3, ... in
// first-seen order. The first occurrence keeps the base id; subsequent
// collisions produce new Module values, the originals are discarded.
func deduplicateIDs(modules []api.Module) []api.Module {
	seen := make(map[string]int, len(modules))
	result := make([]api.Module, 0, len(modules))

	for _, m := range modules {
		n := seen[m.ModuleID]
		seen[m.ModuleID] = n + 1
		if n == 0 {
			result = append(result, m)
			continue
		}
		result = append(result, m.WithModuleID(fmt.Sprintf("%s_%d", m.ModuleID, n+1)))
	}
	return result
}

// filterModules applies the include filter, then the exclude filter,
// against final module ids.
func filterModules(modules []api.Module, include, exclude *regexp.Regexp) []api.Module {
	result := modules
	if include != nil {
		kept := make([]api.Module, 0, len(result))
		for _, m := range result {
			if include.MatchString(m.ModuleID) {
				kept = append(kept, m)
			}
		}
		result = kept
	}
	if exclude != nil {
		kept := make([]api.Module, 0, len(result))
		for _, m := range result {
			if !exclude.MatchString(m.ModuleID) {
				kept = append(kept, m)
			}
		}
		result = kept
	}
	return result
}
