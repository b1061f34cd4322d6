package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/jot/internal/models"
	"github.com/starford/jot/internal/noteservice"
	"github.com/starford/jot/internal/testutil"
)

func testServer(t *testing.T) (*Server, *noteservice.Service) {
	t.Helper()
	svc := noteservice.New(testutil.TestDB(t), noteservice.WithLogger(testutil.Logger()))
	return New(svc, "test"), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so handlers are invoked directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"search_notes":     srv.searchNotes,
		"get_note":         srv.getNote,
		"create_note":      srv.createNote,
		"update_note":      srv.updateNote,
		"delete_notes":     srv.deleteNotes,
		"count_notes":      srv.countNotes,
		"import_files":     srv.importFiles,
		"export_notes":     srv.exportNotes,
		"get_query_syntax": srv.getQuerySyntax,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateGetUpdate(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]any{"title": "Test", "body": "Hello"})
	if text := resultText(r); text != "created: 1" {
		t.Errorf("create result = %q", text)
	}

	// JSON numbers arrive as float64.
	r = callTool(t, srv, "update_note", map[string]any{"id": float64(1), "body": "Hello again"})
	if r.IsError {
		t.Fatalf("update error: %s", resultText(r))
	}
	r = callTool(t, srv, "update_note", map[string]any{"id": 1, "title": "Renamed", "body": "Final"})
	if r.IsError {
		t.Fatalf("full update error: %s", resultText(r))
	}

	r = callTool(t, srv, "get_note", map[string]any{"id": float64(1)})
	var note models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &note); err != nil {
		t.Fatalf("get result %q: %v", resultText(r), err)
	}
	if note.Title != "Renamed" || note.Body != "Final" {
		t.Errorf("note = %+v", note)
	}
}

func TestGetNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_note", map[string]any{"id": 5})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
	r = callTool(t, srv, "get_note", map[string]any{"id": 1.5})
	if !r.IsError {
		t.Error("expected error for fractional id")
	}
}

func TestUpdateMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "update_note", map[string]any{"id": 5, "body": "x"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("result = %q, want not found error", resultText(r))
	}
}

func TestSearchCountDelete(t *testing.T) {
	srv, svc := testServer(t)
	if err := svc.SeedNotes(context.Background(), 3); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "search_notes", map[string]any{"query": "sample note 2", "limit": float64(5)})
	var results []models.SearchResult
	_ = json.Unmarshal([]byte(resultText(r)), &results)
	if len(results) != 1 || results[0].Title != "Sample note 2" {
		t.Errorf("results = %+v", results)
	}

	r = callTool(t, srv, "search_notes", map[string]any{"query": "sample", "limit": float64(0)})
	if text := strings.TrimSpace(resultText(r)); text != "[]" {
		t.Errorf("limit 0 result = %q, want []", text)
	}
	r = callTool(t, srv, "search_notes", map[string]any{"query": "sample"})
	_ = json.Unmarshal([]byte(resultText(r)), &results)
	if len(results) != 3 {
		t.Errorf("default limit results = %d, want 3", len(results))
	}
	if r = callTool(t, srv, "search_notes", map[string]any{"limit": float64(-2)}); !r.IsError {
		t.Error("expected error for negative limit")
	}

	r = callTool(t, srv, "delete_notes", map[string]any{"ids": []any{float64(1), float64(2), float64(99)}})
	if text := resultText(r); text != "deleted: 2" {
		t.Errorf("delete result = %q", text)
	}
	r = callTool(t, srv, "count_notes", map[string]any{})
	if text := resultText(r); text != "1" {
		t.Errorf("count = %q", text)
	}

	r = callTool(t, srv, "delete_notes", map[string]any{"ids": "1"})
	if !r.IsError {
		t.Error("expected error for non-array ids")
	}
}

func TestImportAndExport(t *testing.T) {
	srv, _ := testServer(t)
	src := t.TempDir()
	p := testutil.WriteFile(t, src, "memo.txt", "remember this", time.Time{})

	r := callTool(t, srv, "import_files", map[string]any{"paths": []any{p, filepath.Join(src, "gone.txt"), ""}})
	var res models.ImportResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("import result %q: %v", resultText(r), err)
	}
	if res.Imported != 1 || res.Skipped != 2 {
		t.Errorf("import = %+v", res)
	}

	out := t.TempDir()
	r = callTool(t, srv, "export_notes", map[string]any{"ids": []any{float64(res.IDs[0])}, "dir": out})
	if text := resultText(r); text != "Exported 1 notes to "+out {
		t.Errorf("export result = %q", text)
	}
	if _, err := os.Stat(filepath.Join(out, "note-1-memo.md")); err != nil {
		t.Errorf("exported file: %v", err)
	}
}

func TestQuerySyntaxResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readQuerySyntaxResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != querySyntaxURI || !strings.Contains(tc.Text, "y:2024") {
		t.Errorf("resource contents = %+v", contents[0])
	}
	if text := resultText(callTool(t, srv, "get_query_syntax", nil)); text != QuerySyntax {
		t.Error("tool and resource text differ")
	}
}
