package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dagaz/internal/ledger"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider, *ledger.DB) {
	t.Helper()
	_, store := testutil.TestArchive(t)
	db := testutil.TestLedger(t)
	srv := New(store, db)
	return srv, store, db
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_records":
		result, err = srv.searchRecords(ctx, req)
	case "read_archive":
		result, err = srv.readArchive(ctx, req)
	case "list_activities":
		result, err = srv.listActivities(ctx, req)
	case "activity_stats":
		result, err = srv.activityStats(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

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

func seed(t *testing.T, db *ledger.DB) {
	t.Helper()
	rows := []ledger.Row{
		{Path: "activities/piano.md", Key: "piano", Date: "2026-08-30", Raw: "45min Bach", Minutes: 45},
		{Path: "activities/piano.md", Key: "piano", Date: "2026-08-29", Raw: "10min scales", Minutes: 10},
	}
	if err := db.ReplaceFile("activities/piano.md", "piano", "cs", rows); err != nil {
		t.Fatal(err)
	}
}

func TestReadArchive(t *testing.T) {
	srv, store, _ := testServer(t)
	_ = store.Write("activities/piano.md", []byte("# piano\n"))

	r := callTool(t, srv, "read_archive", map[string]interface{}{"path": "activities/piano.md"})
	if resultText(r) != "# piano\n" {
		t.Errorf("read result = %q", resultText(r))
	}

	r = callTool(t, srv, "read_archive", map[string]interface{}{"path": "activities/nope.md"})
	if !r.IsError {
		t.Error("expected error for missing archive")
	}
}

func TestListActivities(t *testing.T) {
	srv, _, db := testServer(t)

	r := callTool(t, srv, "list_activities", map[string]interface{}{})
	if !strings.Contains(resultText(r), "no activities") {
		t.Errorf("empty list result = %q", resultText(r))
	}

	seed(t, db)
	r = callTool(t, srv, "list_activities", map[string]interface{}{})
	if resultText(r) != "piano" {
		t.Errorf("list result = %q, want piano", resultText(r))
	}
}

func TestSearchRecords(t *testing.T) {
	srv, _, db := testServer(t)
	seed(t, db)

	r := callTool(t, srv, "search_records", map[string]interface{}{"query": "Bach"})
	if !strings.Contains(resultText(r), "45min Bach") {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestActivityStats(t *testing.T) {
	srv, _, db := testServer(t)
	seed(t, db)

	r := callTool(t, srv, "activity_stats", map[string]interface{}{"key": "piano"})
	text := resultText(r)
	if !strings.Contains(text, `"minutes": 55`) {
		t.Errorf("stats result = %q", text)
	}
}
