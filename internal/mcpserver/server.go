// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only Dagaz tools over stdio transport, for downstream
// consumers such as the semantic-tagging step that reads collected archives.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/ledger"
	"github.com/starford/dagaz/internal/storage"
)

// Server wraps the MCP server with Dagaz tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    ledger.RecordLedger
}

// New creates a new MCP server with all Dagaz tools registered. The store
// must be rooted at the archive output directory.
func New(store storage.Provider, db ledger.RecordLedger) *Server {
	s := &Server{store: store, db: db}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_records",
		mcp.WithDescription("Full-text search through collected activity records."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchRecords)

	s.mcp.AddTool(mcp.NewTool("read_archive",
		mcp.WithDescription("Read the full content of an archive file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the archive (e.g. activities/piano.md)")),
	), s.readArchive)

	s.mcp.AddTool(mcp.NewTool("list_activities",
		mcp.WithDescription("List every collected activity and project key."),
	), s.listActivities)

	s.mcp.AddTool(mcp.NewTool("activity_stats",
		mcp.WithDescription("Aggregate totals (minutes, distance, steps, spend) per key. "+
			"A key prefix covers its sub-activities; dates bound the range."),
		mcp.WithString("key", mcp.Description("Optional key prefix (e.g. piano)")),
		mcp.WithString("from", mcp.Description("Optional start date, YYYY-MM-DD")),
		mcp.WithString("to", mcp.Description("Optional end date, YYYY-MM-DD")),
	), s.activityStats)

	// Resource: notation contract.
	s.mcp.AddResource(
		mcp.NewResource("dagaz://notation", "Activity Notation Contract",
			mcp.WithResourceDescription("The journal notation whose records populate these archives."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNotationResource,
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

func (s *Server) searchRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listActivities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys, err := s.db.Keys()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(keys) == 0 {
		return mcp.NewToolResultText("no activities collected yet"), nil
	}
	return mcp.NewToolResultText(strings.Join(keys, "\n")), nil
}

func (s *Server) activityStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := ""
	if k, err := req.RequireString("key"); err == nil {
		prefix = k
	}
	from := ""
	if f, err := req.RequireString("from"); err == nil {
		from = f
	}
	to := ""
	if v, err := req.RequireString("to"); err == nil {
		to = v
	}

	stats, err := s.db.Stats(prefix, from, to)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNotationResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "dagaz://notation",
			MIMEType: "text/markdown",
			Text:     NotationContract,
		},
	}, nil
}
