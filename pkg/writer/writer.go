// Package writer turns scanned modules into live registry entries and
// serialized catalogs.
//
// The registration path resolves each module's target back to its handler,
// binds it for flat invocation, and registers the result. The export path
// emits the same module set as JSON, YAML, or an OpenAPI document.
package writer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/bridge"
	"github.com/modgate/modgate/pkg/registry"
	"github.com/modgate/modgate/pkg/storage"
	"github.com/modgate/modgate/pkg/target"
)

// Options controls one registration pass.
type Options struct {
	// DryRun resolves and binds every module but registers nothing.
	DryRun bool

	// Tolerant records per-module failures and continues instead of
	// aborting on the first one.
	Tolerant bool
}

// Issue records one module that failed to register.
type Issue struct {
	ModuleID string
	Err      error
}

// Report summarizes a registration pass.
type Report struct {
	// Registered lists module ids registered (or, in dry-run mode,
	// modules that would have registered).
	Registered []string

	// Issues lists per-module failures. Only populated in tolerant mode;
	// otherwise the first failure aborts the pass.
	Issues []Issue
}

// Writer registers scanned modules into a registry.
type Writer struct {
	registry *registry.Registry
	resolver *target.Resolver
	store    storage.Store
}

// New creates a Writer. The resolver must know every handler the modules
// reference; store may be nil to skip persistence.
func New(reg *registry.Registry, resolver *target.Resolver, store storage.Store) *Writer {
	if resolver == nil {
		resolver = target.Default
	}
	return &Writer{registry: reg, resolver: resolver, store: store}
}

// Write registers each module: the target string is resolved back to its
// handler, the handler is bound for flat invocation, and the descriptor is
// stored. The module's http_method and url_rule are folded into its
// metadata, overwriting scanner-provided keys of the same name, so
// consumers that only see metadata still learn the HTTP shape.
func (w *Writer) Write(ctx context.Context, modules []api.Module, opts Options) (*Report, error) {
	report := &Report{}

	for _, m := range modules {
		if err := w.writeOne(ctx, m, opts); err != nil {
			if !opts.Tolerant {
				return report, err
			}
			slog.Warn("skipping module", "module_id", m.ModuleID, "error", err)
			report.Issues = append(report.Issues, Issue{ModuleID: m.ModuleID, Err: err})
			continue
		}
		report.Registered = append(report.Registered, m.ModuleID)
	}

	if !opts.DryRun {
		slog.Info("registration pass complete",
			"registered", len(report.Registered), "issues", len(report.Issues))
	}
	return report, nil
}

func (w *Writer) writeOne(ctx context.Context, m api.Module, opts Options) error {
	h, err := w.resolver.Resolve(m.Target)
	if err != nil {
		return fmt.Errorf("resolving target %q: %w", m.Target, err)
	}

	bound, err := bridge.Flatten(h)
	if err != nil {
		return fmt.Errorf("binding handler for %q: %w", m.ModuleID, err)
	}

	m = withHTTPMetadata(m)

	if opts.DryRun {
		return nil
	}

	if err := w.registry.Register(registry.Descriptor{Module: m, Bound: bound}); err != nil {
		return err
	}

	if w.store != nil {
		if err := w.store.SaveBinding(ctx, m.ToBinding()); err != nil && err != storage.ErrConflict {
			return fmt.Errorf("persisting binding %q: %w", m.ModuleID, err)
		}
	}
	return nil
}

// withHTTPMetadata copies the module with http_method and url_rule merged
// into its metadata map. The module's own fields win over any existing
// metadata keys.
func withHTTPMetadata(m api.Module) api.Module {
	meta := make(map[string]string, len(m.Metadata)+2)
	for k, v := range m.Metadata {
		meta[k] = v
	}
	meta["http_method"] = m.HTTPMethod
	meta["url_rule"] = m.URLRule
	m.Metadata = meta
	return m
}
