package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/editorbridge/internal/domain/catalog"
)

// Resource URIs.
const (
	ResourceStatus  = "editorbridge://status"
	ResourceCatalog = "editorbridge://catalog"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			ResourceStatus,
			"Bridge Status",
			mcplib.WithResourceDescription("Current bridge configuration, warnings and backend reachability"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleStatusResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			ResourceCatalog,
			"Tool Catalog",
			mcplib.WithResourceDescription("Bridged editor tools with their aliases and safety classification"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleCatalogResource,
	)
}

func (s *Server) handleStatusResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Utility == nil {
		return jsonResource(req.Params.URI, `{"error":"utility service not configured"}`), nil
	}
	data, err := json.Marshal(s.deps.Utility.Status(false))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

type catalogTool struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Method         string                 `json:"method"`
	Classification catalog.Classification `json:"classification"`
	Aliases        []catalog.AliasGroup   `json:"aliases,omitempty"`
}

func (s *Server) handleCatalogResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	entries := s.deps.Registry.Entries()
	tools := make([]catalogTool, 0, len(entries))
	for _, e := range entries {
		tools = append(tools, catalogTool{
			Name:           e.Tool.Name,
			Description:    e.Tool.Description,
			Method:         e.Tool.BackendMethod(),
			Classification: e.Classification,
			Aliases:        e.Tool.Aliases,
		})
	}
	data, err := json.Marshal(map[string]any{
		"tools": tools,
		"rules": catalog.Rules,
	})
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

func jsonResource(uri, text string) []mcplib.ResourceContents {
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}
}
