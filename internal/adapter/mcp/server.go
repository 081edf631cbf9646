// Package mcp exposes the bridge as a Model Context Protocol server over
// stdio or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/domain/toolcall"
	"github.com/Strob0t/editorbridge/internal/logger"
	"github.com/Strob0t/editorbridge/internal/service"
)

// ToolHandler runs one bridged editor tool call.
type ToolHandler interface {
	Handle(ctx context.Context, tool string, args map[string]any) toolcall.Result
}

// Utilities serves the bridge's own tools.
type Utilities interface {
	Status(verbose bool) service.StatusReport
	Ping(ctx context.Context) service.PingReport
	Reload(ctx context.Context) service.ReloadReport
}

// ServerConfig holds the MCP server identity.
type ServerConfig struct {
	Name    string
	Version string
}

// ServerDeps are the services behind the MCP surface. Nil dependencies
// produce error results instead of panics.
type ServerDeps struct {
	Registry *catalog.Registry
	Tools    ToolHandler
	Utility  Utilities
}

// Server wraps an mcp-go server with the bridge tools and resources.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
}

// NewServer creates a Server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	if deps.Registry == nil {
		deps.Registry = catalog.Default()
	}
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// ServeStdio serves MCP over in/out until ctx is done or in is closed.
// Logs must not be written to out.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))

	slog.Info("mcp stdio transport started", "name", s.cfg.Name, "version", s.cfg.Version)
	err := stdio.Listen(ctx, in, out)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// HTTPHandler returns the streamable HTTP transport. The request ID set by
// upstream middleware is carried into tool call contexts.
func (s *Server) HTTPHandler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if id := logger.RequestID(r.Context()); id != "" {
				return logger.WithRequestID(ctx, id)
			}
			return ctx
		}),
	)
}
