// Package mcpserve exposes registered modules as MCP tools. Each module
// becomes one tool whose name is the module id and whose input schema is
// the module's inferred input schema. The server can run over stdio or be
// mounted as a streamable HTTP handler.
package mcpserve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modgate/modgate/pkg/registry"
)

// Config holds MCP server identity settings.
type Config struct {
	Name    string
	Version string
}

// DefaultConfig returns the default server identity.
func DefaultConfig() Config {
	return Config{Name: "modgate", Version: "0.1.0"}
}

// NewServer builds an MCP server exposing every module currently in the
// registry. Modules registered later are not picked up; rebuild the server
// after registry changes.
func NewServer(cfg Config, reg *registry.Registry) *mcp.Server {
	if cfg.Name == "" {
		cfg = DefaultConfig()
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: cfg.Name, Version: cfg.Version},
		nil,
	)

	for _, d := range reg.List() {
		server.AddTool(toolFromModule(d), toolHandler(reg, d.Module.ModuleID))
	}

	slog.Info("MCP server built", "tools", reg.Len())
	return server
}

// toolFromModule converts a registered module descriptor to an MCP tool.
func toolFromModule(d registry.Descriptor) *mcp.Tool {
	m := d.Module

	description := m.Description
	if m.Documentation != "" {
		description = m.Documentation
	}

	destructive := m.Annotations.Destructive
	return &mcp.Tool{
		Name:        m.ModuleID,
		Description: description,
		InputSchema: m.InputSchema,
		Annotations: &mcp.ToolAnnotations{
			Title:           m.Description,
			ReadOnlyHint:    m.Annotations.ReadOnly,
			DestructiveHint: &destructive,
			IdempotentHint:  m.Annotations.Idempotent,
		},
	}
}

// toolHandler adapts a registry call to the MCP tool contract. Module
// errors are reported in-band via IsError so the client sees the message.
func toolHandler(reg *registry.Registry, moduleID string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Sprintf("invalid arguments JSON: %v", err)), nil
			}
		}

		result, err := reg.Call(ctx, moduleID, args)
		if err != nil {
			return errorResult(err.Error()), nil
		}

		text, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshaling result of %q: %w", moduleID, err)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
		}, nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

// RunStdio serves MCP over stdin/stdout until the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns a streamable HTTP handler for mounting the MCP server
// on an existing HTTP mux.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)
}
