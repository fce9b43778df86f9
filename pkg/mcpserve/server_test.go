package mcpserve

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modgate/modgate/pkg/api"
	"github.com/modgate/modgate/pkg/bridge"
	"github.com/modgate/modgate/pkg/registry"
	"github.com/modgate/modgate/pkg/routes"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()

	echo := func(ctx context.Context, message string) (map[string]any, error) {
		return map[string]any{"echoed": message}, nil
	}
	b, err := bridge.Flatten(routes.Handler{
		Func: echo, Name: "echo", Package: "demo", Params: []string{"message"},
	})
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}

	err = reg.Register(registry.Descriptor{
		Module: api.Module{
			ModuleID:    "demo.echo.post",
			Description: "Echo a message.",
			HTTPMethod:  "POST",
			URLRule:     "/echo",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"message": map[string]any{"type": "string"},
				},
				"required": []string{"message"},
			},
			Annotations: api.Annotations{Idempotent: true},
		},
		Bound: b,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg
}

// connect builds the MCP server over the registry and connects a client
// via in-memory transports.
func connect(t *testing.T, reg *registry.Registry) *mcp.ClientSession {
	t.Helper()

	server := NewServer(DefaultConfig(), reg)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()
	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(
		&mcp.Implementation{Name: "test-client", Version: "1.0.0"},
		nil,
	)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestToolsListed(t *testing.T) {
	session := connect(t, testRegistry(t))

	var found *mcp.Tool
	for tool, err := range session.Tools(context.Background(), nil) {
		if err != nil {
			t.Fatalf("listing tools: %v", err)
		}
		if tool.Name == "demo.echo.post" {
			found = tool
		}
	}
	if found == nil {
		t.Fatal("tool demo.echo.post not listed")
	}
	if found.Description != "Echo a message." {
		t.Errorf("description = %q", found.Description)
	}

	schema, err := json.Marshal(found.InputSchema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	if !strings.Contains(string(schema), `"message"`) {
		t.Errorf("input schema = %s, want message property", schema)
	}
}

func TestCallTool(t *testing.T) {
	session := connect(t, testRegistry(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "demo.echo.post",
		Arguments: map[string]any{"message": "hello"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if result.IsError {
		t.Fatalf("IsError = true, content: %v", result.Content)
	}

	text := textContent(t, result)
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if payload["echoed"] != "hello" {
		t.Errorf("echoed = %v, want hello", payload["echoed"])
	}
}

func TestCallToolValidationError(t *testing.T) {
	session := connect(t, testRegistry(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "demo.echo.post",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !result.IsError {
		t.Fatal("IsError = false, want validation failure reported in-band")
	}
	if !strings.Contains(textContent(t, result), "validation") {
		t.Errorf("content = %q, want validation error", textContent(t, result))
	}
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty content")
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want *mcp.TextContent", result.Content[0])
	}
	return tc.Text
}
