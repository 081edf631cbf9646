package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/domain/toolcall"
)

// Utility tool names.
const (
	ToolStatus       = "status"
	ToolPing         = "ping"
	ToolReloadConfig = "reloadConfig"
)

// registerTools registers every catalog tool plus the utility tools.
func (s *Server) registerTools() {
	entries := s.deps.Registry.Entries()
	tools := make([]mcpserver.ServerTool, 0, len(entries)+3)
	for _, e := range entries {
		tools = append(tools, s.editorTool(e))
	}
	tools = append(tools, s.statusTool(), s.pingTool(), s.reloadConfigTool())
	s.mcpServer.AddTools(tools...)
}

func (s *Server) editorTool(e catalog.Entry) mcpserver.ServerTool {
	opts := []mcplib.ToolOption{
		mcplib.WithDescription(e.Tool.Description),
		mcplib.WithDestructiveHintAnnotation(e.Classification.Destructive),
		mcplib.WithReadOnlyHintAnnotation(e.Classification.ReadOnly),
		mcplib.WithOpenWorldHintAnnotation(false),
	}
	for _, p := range e.Tool.Params {
		opts = append(opts, paramOption(p))
	}
	opts = append(opts,
		mcplib.WithBoolean(toolcall.KeyConfirm,
			mcplib.Description("Set to true to execute a destructive operation.")),
		mcplib.WithString(toolcall.KeyConfirmNote,
			mcplib.Description("Optional note recorded with a confirmed operation.")),
		mcplib.WithNumber(toolcall.TimeoutKeys[0],
			mcplib.Description("Per-call timeout in milliseconds, capped by the bridge maximum.")),
	)

	name := e.Tool.Name
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool(name, opts...),
		Handler: func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
			if s.deps.Tools == nil {
				return mcplib.NewToolResultError("tool handler not configured"), nil
			}
			return toolResultJSON(s.deps.Tools.Handle(ctx, name, req.GetArguments())), nil
		},
	}
}

func paramOption(p catalog.Param) mcplib.ToolOption {
	desc := mcplib.Description(p.Description)
	switch p.Type {
	case "number":
		return mcplib.WithNumber(p.Name, desc)
	case "boolean":
		return mcplib.WithBoolean(p.Name, desc)
	case "object":
		return mcplib.WithObject(p.Name, desc)
	case "array":
		return mcplib.WithArray(p.Name, desc)
	default:
		return mcplib.WithString(p.Name, desc)
	}
}

func (s *Server) statusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool(ToolStatus,
		mcplib.WithDescription("Report bridge configuration, warnings and last known backend reachability"),
		mcplib.WithBoolean("verbose",
			mcplib.Description("Also list the tool classification table"),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
		mcplib.WithDestructiveHintAnnotation(false),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleStatus,
	}
}

func (s *Server) pingTool() mcpserver.ServerTool {
	tool := mcplib.NewTool(ToolPing,
		mcplib.WithDescription("Check that the editor backend answers, with a short fixed timeout"),
		mcplib.WithReadOnlyHintAnnotation(true),
		mcplib.WithDestructiveHintAnnotation(false),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handlePing,
	}
}

func (s *Server) reloadConfigTool() mcpserver.ServerTool {
	tool := mcplib.NewTool(ToolReloadConfig,
		mcplib.WithDescription("Re-read bridge configuration and report what changed"),
		mcplib.WithReadOnlyHintAnnotation(false),
		mcplib.WithDestructiveHintAnnotation(false),
		mcplib.WithIdempotentHintAnnotation(true),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleReloadConfig,
	}
}

func (s *Server) handleStatus(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Utility == nil {
		return mcplib.NewToolResultError("utility service not configured"), nil
	}
	verbose, _ := req.GetArguments()["verbose"].(bool)
	return toolResultJSON(toolcall.Success(s.deps.Utility.Status(verbose), nil)), nil
}

func (s *Server) handlePing(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Utility == nil {
		return mcplib.NewToolResultError("utility service not configured"), nil
	}
	return toolResultJSON(toolcall.Success(s.deps.Utility.Ping(ctx), nil)), nil
}

func (s *Server) handleReloadConfig(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Utility == nil {
		return mcplib.NewToolResultError("utility service not configured"), nil
	}
	return toolResultJSON(toolcall.Success(s.deps.Utility.Reload(ctx), nil)), nil
}

// toolResultJSON renders the result envelope as JSON text. Failed calls
// are flagged with IsError so clients can branch without parsing.
func toolResultJSON(res toolcall.Result) *mcplib.CallToolResult {
	data, err := json.Marshal(res)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err)
	}
	if !res.OK {
		return mcplib.NewToolResultError(string(data))
	}
	return mcplib.NewToolResultText(string(data))
}
