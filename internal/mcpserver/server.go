// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes jot tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/jot/internal/noteservice"
)

const (
	querySyntaxURI  = "jot://query-syntax"
	mcpSearchLimit  = 20
	integerItemType = "integer"
)

// Server wraps the MCP server with jot tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all jot tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"jot",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	idItems := mcp.Items(map[string]any{"type": integerItemType})

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes. Supports y:YYYY and m:MM/YY date tokens; "+
			"see the "+querySyntaxURI+" resource. An empty query lists the newest notes."),
		mcp.WithString("query", mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read the full title and body of a note by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note and return its id."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("body", mcp.Description("Note body (plain text)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace a note's body, and its title when one is given."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("body", mcp.Required(), mcp.Description("New body")),
		mcp.WithString("title", mcp.Description("New title (optional)")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_notes",
		mcp.WithDescription("Delete notes by id. Unknown ids are ignored."),
		mcp.WithArray("ids", mcp.Required(), idItems, mcp.Description("Note ids")),
	), s.deleteNotes)

	s.mcp.AddTool(mcp.NewTool("count_notes",
		mcp.WithDescription("Return the number of stored notes."),
	), s.countNotes)

	s.mcp.AddTool(mcp.NewTool("import_files",
		mcp.WithDescription("Import UTF-8 text files as notes, skipping files whose content is already stored."),
		mcp.WithArray("paths", mcp.Required(), mcp.WithStringItems(), mcp.Description("Absolute file paths")),
	), s.importFiles)

	s.mcp.AddTool(mcp.NewTool("export_notes",
		mcp.WithDescription("Write notes as one file each into a directory."),
		mcp.WithArray("ids", mcp.Required(), idItems, mcp.Description("Note ids")),
		mcp.WithString("dir", mcp.Description("Target directory (default: the configured export directory)")),
	), s.exportNotes)

	s.mcp.AddTool(mcp.NewTool("get_query_syntax",
		mcp.WithDescription("Returns the search query syntax reference."),
	), s.getQuerySyntax)

	s.mcp.AddResource(
		mcp.NewResource(querySyntaxURI, "Search Query Syntax",
			mcp.WithResourceDescription("Keyword and date-token syntax accepted by search_notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readQuerySyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	limit := mcpSearchLimit
	if raw, present := args["limit"]; present {
		v, ok := toInt64(raw)
		if !ok || v < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid limit %v", raw)), nil
		}
		limit = int(v)
	}
	results, err := s.svc.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if note == nil {
		return mcp.NewToolResultError(fmt.Sprintf("note %d not found", id)), nil
	}
	return jsonResult(note)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, _ := req.GetArguments()["body"].(string)

	id, err := s.svc.CreateNote(ctx, title, body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %d", id)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if title, ok := req.GetArguments()["title"].(string); ok {
		err = s.svc.UpdateNoteFull(ctx, id, title, body)
	} else {
		err = s.svc.UpdateNote(ctx, id, body)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %d", id)), nil
}

func (s *Server) deleteNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := requireIDs(req, "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.DeleteNotes(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", n)), nil
}

func (s *Server) countNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.svc.NoteCount(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d", n)), nil
}

func (s *Server) importFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["paths"].([]any)
	if !ok {
		return mcp.NewToolResultError(`required argument "paths" must be an array of strings`), nil
	}
	paths := make([]string, 0, len(raw))
	for _, v := range raw {
		p, ok := v.(string)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid path %v", v)), nil
		}
		paths = append(paths, p)
	}
	return jsonResult(s.svc.ImportFiles(ctx, paths))
}

func (s *Server) exportNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := requireIDs(req, "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, _ := req.GetArguments()["dir"].(string)

	res, err := s.svc.ExportNotes(ctx, ids, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(res.Message()), nil
}

func (s *Server) getQuerySyntax(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(QuerySyntax), nil
}

func (s *Server) readQuerySyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      querySyntaxURI,
			MIMEType: "text/markdown",
			Text:     QuerySyntax,
		},
	}, nil
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	id, ok := toInt64(req.GetArguments()["id"])
	if !ok {
		return 0, fmt.Errorf(`required argument "id" must be an integer`)
	}
	return id, nil
}

func requireIDs(req mcp.CallToolRequest, key string) ([]int64, error) {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil, fmt.Errorf("required argument %q must be an array of integers", key)
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, ok := toInt64(v)
		if !ok {
			return nil, fmt.Errorf("invalid id %v in %q", v, key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// toInt64 accepts the numeric forms JSON decoding and tests produce.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
