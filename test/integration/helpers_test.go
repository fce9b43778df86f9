// Package integration provides integration tests for the modgate explorer
// API and MCP endpoint.
//
// Tests run against a real modgate HTTP server assembled from the full
// pipeline (scan, register, serve) and started in-process using
// net/http/httptest.
package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/mcpserve"
	"github.com/modgate/modgate/pkg/registry"
	"github.com/modgate/modgate/pkg/routes"
	"github.com/modgate/modgate/pkg/scanner"
	"github.com/modgate/modgate/pkg/storage"
	"github.com/modgate/modgate/pkg/storage/memory"
	"github.com/modgate/modgate/pkg/target"
	"github.com/modgate/modgate/pkg/web"
	"github.com/modgate/modgate/pkg/writer"
)

// testEnv holds the shared server for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the modgate server and its backing components.
type TestEnvironment struct {
	Server   *httptest.Server
	Registry *registry.Registry
	Store    storage.Store
}

func (e *TestEnvironment) BaseURL() string {
	return e.Server.URL
}

func (e *TestEnvironment) Teardown() {
	e.Server.Close()
	e.Store.Close()
}

// TestMain assembles the full scan-register-serve pipeline before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

type taskInput struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

func testTable() routes.Table {
	const pkg = "integration/tasks"

	listTasks := func(ctx context.Context) ([]map[string]any, error) {
		return []map[string]any{{"id": 1, "title": "first"}}, nil
	}
	createTask := func(ctx context.Context, body taskInput) (map[string]any, error) {
		return map[string]any{"title": body.Title, "done": body.Done}, nil
	}
	getTask := func(ctx context.Context, taskID int) (map[string]any, error) {
		if taskID != 1 {
			return nil, api.NewNotFoundError("task not found")
		}
		return map[string]any{"id": 1, "title": "first"}, nil
	}

	return routes.Table{
		{
			Rule:    "/tasks",
			Methods: []string{"GET"},
			Group:   "tasks",
			Handler: routes.Handler{Func: listTasks, Name: "list_tasks", Package: pkg,
				Doc: "List all tasks."},
		},
		{
			Rule:    "/tasks",
			Methods: []string{"POST"},
			Group:   "tasks",
			Handler: routes.Handler{Func: createTask, Name: "create_task", Package: pkg,
				Doc: "Create a new task.", Params: []string{"body"}},
		},
		{
			Rule:    "/tasks/<int:task_id>",
			Methods: []string{"GET"},
			Group:   "tasks",
			Handler: routes.Handler{Func: getTask, Name: "get_task", Package: pkg,
				Doc: "Get a task by its ID.", Params: []string{"task_id"}},
		},
	}
}

// setupTestEnvironment runs the full pipeline and starts an in-process server.
func setupTestEnvironment() *TestEnvironment {
	table := testTable()

	modules, err := scanner.New(nil).Scan(table, scanner.Options{})
	if err != nil {
		panic(fmt.Sprintf("scanning routes: %v", err))
	}

	resolver := target.NewResolver()
	resolver.AddTable(table)

	store := memory.New()
	reg := registry.New()

	if _, err := writer.New(reg, resolver, store).Write(context.Background(), modules, writer.Options{}); err != nil {
		panic(fmt.Sprintf("registering modules: %v", err))
	}

	cfg := web.DefaultConfig()
	cfg.AllowExecute = true
	cfg.OpenAPIInfo = writer.Info{Title: "integration", Version: "0.0.1"}
	cfg.MCPHandler = mcpserve.Handler(mcpserve.NewServer(mcpserve.DefaultConfig(), reg))
	cfg.MCPPath = "/mcp"

	srv := web.NewServer(cfg, reg, store, nil)

	return &TestEnvironment{
		Server:   httptest.NewServer(srv.Handler()),
		Registry: reg,
		Store:    store,
	}
}

// getURL performs a GET request and fails the test on transport errors.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// postJSON performs a POST request with a JSON body.
func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

// readBody reads and returns the full response body.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}
