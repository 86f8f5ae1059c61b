package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/oblique-strategies-mcp-server/internal/strategies"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fixtureStore() *strategies.Store {
	root := fstest.MapFS{
		"oblique-strategies-edition-1.txt": {Data: []byte("Strategy 1\nStrategy 2\nStrategy 3\n")},
		"oblique-strategies-edition-2.txt": {Data: []byte("Default strategy 1\nDefault strategy 2\n")},
		"prompts-for-programmers.txt":      {Data: []byte("Debug it\nRefactor it\nTest it\n")},
	}
	return strategies.NewStore(root, strategies.WithLogger(quietLogger()))
}

// connect registers all tools on a fresh server and returns a connected client session.
func connect(t *testing.T, store *strategies.Store) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "0.0.1"}, nil)
	NewHandlerRegistry(store, quietLogger()).RegisterAll(server)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// callTool invokes a tool and decodes its structured content into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s) failed: %v", name, err)
	}
	if res.IsError {
		t.Fatalf("CallTool(%s) returned tool error: %+v", name, res.Content)
	}
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("unmarshal structured content %s: %v", raw, err)
	}
	return res
}

func TestNewHandlerRegistry(t *testing.T) {
	logger := quietLogger()
	store := fixtureStore()

	registry := NewHandlerRegistry(store, logger)

	if registry == nil {
		t.Fatal("Expected non-nil registry")
	}
	if registry.store != store {
		t.Error("Registry should hold the store reference")
	}
	if registry.logger != logger {
		t.Error("Registry should hold the logger reference")
	}
}

func TestBuildTool(t *testing.T) {
	registry := NewHandlerRegistry(fixtureStore(), quietLogger())

	tests := []struct {
		name      string
		spec      ToolSpec
		wantName  string
		wantDesc  string
		wantRO    bool
		wantIdem  bool
		wantDestr bool
		wantOpen  bool
	}{
		{
			name: "read-only tool",
			spec: ToolSpec{
				Name:        "search_strategies",
				Title:       "Search Strategies",
				Description: "Search strategies by text",
				Method:      "SearchStrategies",
				ReadOnly:    true,
				Idempotent:  true,
			},
			wantName: "search_strategies",
			wantDesc: "Search strategies by text",
			wantRO:   true,
			wantIdem: true,
		},
		{
			name: "destructive open world tool",
			spec: ToolSpec{
				Name:        "hypothetical_write",
				Title:       "Write",
				Description: "Writes somewhere else",
				Method:      "Write",
				Destructive: true,
				OpenWorld:   true,
			},
			wantName:  "hypothetical_write",
			wantDesc:  "Writes somewhere else",
			wantDestr: true,
			wantOpen:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := registry.buildTool(tt.spec)

			if tool.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", tool.Name, tt.wantName)
			}
			if tool.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", tool.Description, tt.wantDesc)
			}
			if tool.Annotations == nil {
				t.Fatal("Expected annotations")
			}
			if tool.Annotations.ReadOnlyHint != tt.wantRO {
				t.Errorf("ReadOnlyHint = %v, want %v", tool.Annotations.ReadOnlyHint, tt.wantRO)
			}
			if tool.Annotations.IdempotentHint != tt.wantIdem {
				t.Errorf("IdempotentHint = %v, want %v", tool.Annotations.IdempotentHint, tt.wantIdem)
			}
			gotDestr := tool.Annotations.DestructiveHint != nil && *tool.Annotations.DestructiveHint
			if gotDestr != tt.wantDestr {
				t.Errorf("DestructiveHint = %v, want %v", gotDestr, tt.wantDestr)
			}
			if tool.Annotations.OpenWorldHint == nil || *tool.Annotations.OpenWorldHint != tt.wantOpen {
				t.Errorf("OpenWorldHint should be set to %v", tt.wantOpen)
			}
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	registry := NewHandlerRegistry(fixtureStore(), quietLogger())

	var err error
	func() {
		defer registry.recoverPanic("test_tool", &err)
		panic("test panic")
	}()

	if err == nil {
		t.Fatal("expected recovered panic to be converted into an error")
	}
}

func TestRecoverPanic_NoPanic(t *testing.T) {
	registry := NewHandlerRegistry(fixtureStore(), quietLogger())

	err := errors.New("untouched")
	func() {
		defer registry.recoverPanic("test_tool", &err)
	}()

	if err.Error() != "untouched" {
		t.Errorf("error should be untouched without a panic, got %v", err)
	}
}

func TestLogExecution(t *testing.T) {
	registry := NewHandlerRegistry(fixtureStore(), quietLogger())
	spec := ToolSpec{Name: "test_tool", Category: "read"}

	// Should not panic for any args/result combination
	registry.logExecution(spec,
		strategies.GetStrategyArgs{Edition: "edition-1"},
		strategies.RandomResult{Strategy: "Strategy 1", Edition: "edition-1", TotalInEdition: 3})
	registry.logExecution(spec,
		strategies.GetStrategyArgs{Edition: "edition-4"},
		strategies.RandomResult{Error: "strategy file not found", Edition: "edition-4"})
	registry.logExecution(spec,
		strategies.SearchStrategiesArgs{Query: "debug"},
		strategies.SearchResult{Query: "debug", Count: 1})
	registry.logExecution(spec, strategies.ListEditionsArgs{}, strategies.ListResult{})
}

func TestAllToolsNotEmpty(t *testing.T) {
	if len(AllTools) != 3 {
		t.Errorf("expected 3 tools, got %d", len(AllTools))
	}

	for i, spec := range AllTools {
		if spec.Name == "" {
			t.Errorf("Tool %d has empty Name", i)
		}
		if spec.Method == "" {
			t.Errorf("Tool %s has empty Method", spec.Name)
		}
		if spec.Description == "" {
			t.Errorf("Tool %s has empty Description", spec.Name)
		}
		if spec.Category == "" {
			t.Errorf("Tool %s has empty Category", spec.Name)
		}
		if !spec.ReadOnly || spec.Destructive || spec.OpenWorld {
			t.Errorf("Tool %s should be read-only and closed-world", spec.Name)
		}
	}
}

func TestToolSpecMethods(t *testing.T) {
	registry := NewHandlerRegistry(fixtureStore(), quietLogger())
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0.0.1"}, nil)

	for _, spec := range AllTools {
		if !registry.registerByName(server, spec) {
			t.Errorf("Tool %s has unknown method: %s", spec.Name, spec.Method)
		}
	}

	if registry.registerByName(server, ToolSpec{Name: "bogus", Method: "Bogus"}) {
		t.Error("unknown method should not register")
	}
}

func TestToolsByCategory(t *testing.T) {
	searchTools := ToolsByCategory("search")
	if len(searchTools) != 1 || searchTools[0].Name != "search_strategies" {
		t.Errorf("unexpected search tools: %+v", searchTools)
	}
	if len(ToolsByCategory("unknown")) != 0 {
		t.Error("expected no tools for unknown category")
	}
}

// =============================================================================
// End-to-end tool calls over an in-memory MCP session
// =============================================================================

func TestListTools(t *testing.T) {
	session := connect(t, fixtureStore())

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}

	names := make(map[string]bool)
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"get_strategy", "search_strategies", "list_editions"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
}

func TestCallGetStrategy(t *testing.T) {
	session := connect(t, fixtureStore())

	var result strategies.RandomResult
	callTool(t, session, "get_strategy", map[string]any{"edition": "edition-1"}, &result)

	if result.Edition != "edition-1" || result.TotalInEdition != 3 {
		t.Errorf("unexpected result: %+v", result)
	}
	switch result.Strategy {
	case "Strategy 1", "Strategy 2", "Strategy 3":
	default:
		t.Errorf("strategy %q is not from edition-1", result.Strategy)
	}
}

func TestCallGetStrategy_DefaultEdition(t *testing.T) {
	session := connect(t, fixtureStore())

	var result strategies.RandomResult
	callTool(t, session, "get_strategy", map[string]any{}, &result)

	if result.Edition != strategies.DefaultEdition {
		t.Errorf("expected default edition, got %q", result.Edition)
	}
}

func TestCallGetStrategy_MissingSource(t *testing.T) {
	session := connect(t, fixtureStore())

	var result strategies.RandomResult
	callTool(t, session, "get_strategy", map[string]any{"edition": "do-it"}, &result)

	if result.Error == "" {
		t.Fatal("expected error in result")
	}
	if result.Edition != "do-it" {
		t.Errorf("expected edition 'do-it', got %q", result.Edition)
	}
}

func TestCallSearchStrategies(t *testing.T) {
	session := connect(t, fixtureStore())

	var result strategies.SearchResult
	callTool(t, session, "search_strategies", map[string]any{"query": "Debug", "edition": "programmers"}, &result)

	if result.Count != 1 {
		t.Fatalf("expected 1 match, got %d", result.Count)
	}
	if result.Matches[0] != (strategies.Match{Strategy: "Debug it", Edition: "programmers"}) {
		t.Errorf("unexpected match: %+v", result.Matches[0])
	}
}

func TestCallSearchStrategies_NoMatches(t *testing.T) {
	session := connect(t, fixtureStore())

	var result strategies.SearchResult
	callTool(t, session, "search_strategies", map[string]any{"query": "xyzabc123"}, &result)

	if result.Count != 0 {
		t.Errorf("expected 0 matches, got %d", result.Count)
	}
	if result.Matches == nil {
		t.Error("matches should decode as an empty array")
	}
	if len(result.SearchedEditions) != 7 {
		t.Errorf("expected all editions searched, got %v", result.SearchedEditions)
	}
}

func TestCallListEditions(t *testing.T) {
	session := connect(t, fixtureStore())

	var result strategies.ListResult
	callTool(t, session, "list_editions", map[string]any{}, &result)

	if result.DefaultEdition != strategies.DefaultEdition {
		t.Errorf("expected default %q, got %q", strategies.DefaultEdition, result.DefaultEdition)
	}
	if len(result.Editions) != 3 {
		t.Errorf("expected 3 editions, got %d", len(result.Editions))
	}
}
