package mcp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	cfmcp "github.com/Strob0t/editorbridge/internal/adapter/mcp"
	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/domain/toolcall"
	"github.com/Strob0t/editorbridge/internal/service"
)

// --- Mocks ---

type mockTools struct {
	tool   string
	args   map[string]any
	result toolcall.Result
}

func (m *mockTools) Handle(_ context.Context, tool string, args map[string]any) toolcall.Result {
	m.tool, m.args = tool, args
	return m.result
}

type mockUtility struct {
	verbose  bool
	pinged   bool
	reloaded bool
}

func (m *mockUtility) Status(verbose bool) service.StatusReport {
	m.verbose = verbose
	return service.StatusReport{
		Config:   config.NewSnapshot(config.Defaults().Backend),
		Warnings: []config.Warning{},
		Breaker:  "closed",
	}
}

func (m *mockUtility) Ping(context.Context) service.PingReport {
	m.pinged = true
	return service.PingReport{BackendURL: config.DefaultBackendURL, Reachable: true, LatencyMs: 3}
}

func (m *mockUtility) Reload(context.Context) service.ReloadReport {
	m.reloaded = true
	return service.ReloadReport{Changes: []config.Change{{Field: "backendUrl", Old: "a", New: "b"}}}
}

func newServer(deps cfmcp.ServerDeps) *cfmcp.Server {
	return cfmcp.NewServer(cfmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)
}

func call(t *testing.T, s *cfmcp.Server, name string, args map[string]any) (*mcplib.CallToolResult, map[string]any) {
	t.Helper()
	tool, ok := s.MCPServer().ListTools()[name]
	if !ok {
		t.Fatalf("%s tool not found", name)
	}
	result, err := tool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var envelope map[string]any
	_ = json.Unmarshal([]byte(text.Text), &envelope)
	return result, envelope
}

// --- Tests ---

func TestNewServer(t *testing.T) {
	s := newServer(cfmcp.ServerDeps{})
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
	if s.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}

func TestToolRegistration(t *testing.T) {
	s := newServer(cfmcp.ServerDeps{})
	tools := s.MCPServer().ListTools()

	want := len(catalog.Default().Entries()) + 3
	if len(tools) != want {
		t.Fatalf("expected %d tools, got %d", want, len(tools))
	}
	for _, name := range []string{cfmcp.ToolStatus, cfmcp.ToolPing, cfmcp.ToolReloadConfig, "entity.delete", "scene.list"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestToolAnnotationsFollowClassification(t *testing.T) {
	tools := newServer(cfmcp.ServerDeps{}).MCPServer().ListTools()

	tests := []struct {
		name        string
		destructive bool
		readOnly    bool
	}{
		{"entity.delete", true, false},
		{"build.player", true, false},
		{"entity.find", false, true},
		{"entity.create", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tools[tt.name].Tool.Annotations
			if a.DestructiveHint == nil || *a.DestructiveHint != tt.destructive {
				t.Errorf("destructive hint = %v, want %v", a.DestructiveHint, tt.destructive)
			}
			if a.ReadOnlyHint == nil || *a.ReadOnlyHint != tt.readOnly {
				t.Errorf("read-only hint = %v, want %v", a.ReadOnlyHint, tt.readOnly)
			}
		})
	}
}

func TestEditorToolsDeclareReservedFlags(t *testing.T) {
	tools := newServer(cfmcp.ServerDeps{}).MCPServer().ListTools()
	props := tools["entity.delete"].Tool.InputSchema.Properties
	for _, key := range []string{toolcall.KeyConfirm, toolcall.KeyConfirmNote, "__timeoutMs", catalog.FieldTarget, catalog.FieldTargetID} {
		if _, ok := props[key]; !ok {
			t.Errorf("entity.delete schema lacks %s", key)
		}
	}
}

func TestHandleEditorTool(t *testing.T) {
	m := &mockTools{result: toolcall.Success(map[string]any{"deleted": true}, []string{"w"})}
	s := newServer(cfmcp.ServerDeps{Tools: m})

	result, env := call(t, s, "entity.delete", map[string]any{"targetId": "obj:1", "__confirm": true})
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	if m.tool != "entity.delete" || m.args["__confirm"] != true {
		t.Errorf("arguments must reach the bridge untouched, got %s %v", m.tool, m.args)
	}
	if env["ok"] != true || env["warnings"] == nil {
		t.Errorf("unexpected envelope %v", env)
	}
}

func TestHandleEditorToolFailure(t *testing.T) {
	m := &mockTools{result: toolcall.Failure(toolcall.NewError(toolcall.KindConfirmationRequired, "confirm"), nil)}
	s := newServer(cfmcp.ServerDeps{Tools: m})

	result, env := call(t, s, "entity.delete", map[string]any{"target": "Player"})
	if !result.IsError {
		t.Fatal("expected IsError for a failed call")
	}
	errObj, _ := env["error"].(map[string]any)
	if env["ok"] != false || errObj["kind"] != string(toolcall.KindConfirmationRequired) {
		t.Errorf("unexpected envelope %v", env)
	}
}

func TestHandleUtilityTools(t *testing.T) {
	u := &mockUtility{}
	s := newServer(cfmcp.ServerDeps{Utility: u})

	if _, env := call(t, s, cfmcp.ToolStatus, map[string]any{"verbose": true}); env["ok"] != true {
		t.Errorf("status failed: %v", env)
	}
	if !u.verbose {
		t.Error("verbose flag not passed to status")
	}

	_, env := call(t, s, cfmcp.ToolPing, nil)
	data, _ := env["data"].(map[string]any)
	if !u.pinged || data["reachable"] != true {
		t.Errorf("unexpected ping envelope %v", env)
	}

	_, env = call(t, s, cfmcp.ToolReloadConfig, nil)
	data, _ = env["data"].(map[string]any)
	if !u.reloaded || data["changes"] == nil {
		t.Errorf("unexpected reload envelope %v", env)
	}
}

func TestHandleNilDeps(t *testing.T) {
	s := newServer(cfmcp.ServerDeps{})
	for _, name := range []string{"entity.get", cfmcp.ToolStatus, cfmcp.ToolPing, cfmcp.ToolReloadConfig} {
		result, _ := call(t, s, name, nil)
		if !result.IsError {
			t.Errorf("%s: expected error result with nil deps", name)
		}
	}
}

func TestCatalogResource(t *testing.T) {
	s := newServer(cfmcp.ServerDeps{Utility: &mockUtility{}})
	msg := `{"jsonrpc":"2.0","id":1,"method":"resources/read","params":{"uri":"` + cfmcp.ResourceCatalog + `"}}`

	resp := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(msg))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"entity.delete", "gameObjectPath", "destructive"} {
		if !strings.Contains(string(data), s) {
			t.Errorf("catalog resource should mention %q", s)
		}
	}
}

func TestHTTPHandlerInitialize(t *testing.T) {
	s := newServer(cfmcp.ServerDeps{})
	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()
	s.HTTPHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "test") {
		t.Errorf("expected server info in response, got %s", rec.Body.String())
	}
}
