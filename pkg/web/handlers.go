package web

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/registry"
	"github.com/modgate/modgate/pkg/storage"
	"github.com/modgate/modgate/pkg/writer"
)

// maxCallBodySize limits module call request bodies to 1 MB.
const maxCallBodySize = 1 << 20

// moduleList is the response shape of GET /v1/modules.
type moduleList struct {
	Modules []api.Binding `json:"modules"`
	Count   int           `json:"count"`
}

// callResult is the response shape of POST /v1/modules/{id}/call.
type callResult struct {
	ModuleID string `json:"module_id"`
	Result   any    `json:"result"`
}

// explorer implements the explorer API endpoints over a module registry.
type explorer struct {
	registry     *registry.Registry
	store        storage.Store
	allowExecute bool
	openAPIInfo  writer.Info
}

// handleListModules serves GET /v1/modules.
func (e *explorer) handleListModules(w http.ResponseWriter, r *http.Request) {
	descriptors := e.registry.List()
	bindings := make([]api.Binding, 0, len(descriptors))
	for _, d := range descriptors {
		bindings = append(bindings, d.Module.ToBinding())
	}
	writeJSON(w, moduleList{Modules: bindings, Count: len(bindings)})
}

// handleGetModule serves GET /v1/modules/{id}.
func (e *explorer) handleGetModule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	d, ok := e.registry.Get(id)
	if !ok {
		writeAPIError(w, api.NewNotFoundError("module not found: "+id))
		return
	}
	writeJSON(w, d.Module.ToBinding())
}

// handleCallModule serves POST /v1/modules/{id}/call. The request body is
// the flat argument object; the response wraps the handler result.
func (e *explorer) handleCallModule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !e.allowExecute {
		writeError(w, api.NewInvalidConfigError("explorer.allow_execute",
			"module execution over HTTP is disabled"), http.StatusForbidden)
		return
	}

	args, err := decodeArgs(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	result, err := e.registry.Call(r.Context(), id, args)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	writeJSON(w, callResult{ModuleID: id, Result: result})
}

// decodeArgs reads the request body as a JSON object of call arguments.
// An empty body means no arguments.
func decodeArgs(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallBodySize))
	if err != nil {
		return nil, api.NewServerError("reading request body: " + err.Error())
	}
	if len(body) == 0 {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(body, &args); err != nil {
		return nil, api.NewValidationError("", "request body must be a JSON object: "+err.Error())
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// handleOpenAPI serves GET /openapi.json, regenerating the document from
// the current registry contents on each request.
func (e *explorer) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	descriptors := e.registry.List()
	modules := make([]api.Module, 0, len(descriptors))
	for _, d := range descriptors {
		modules = append(modules, d.Module)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := writer.WriteOpenAPI(w, modules, e.openAPIInfo); err != nil {
		// The document is streamed; a mid-write failure cannot be
		// converted into an error response anymore.
		return
	}
}

// handleHealthz serves GET /healthz. Always healthy while the process runs.
func (e *explorer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleReadyz serves GET /readyz. Ready when the binding store answers
// its health check. Without a store the endpoint mirrors /healthz.
func (e *explorer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if e.store != nil {
		if err := e.store.HealthCheck(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
