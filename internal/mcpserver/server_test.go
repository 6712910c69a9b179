package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/whitlock/clipvault/internal/clipservice"
	"github.com/whitlock/clipvault/internal/librarian"
	"github.com/whitlock/clipvault/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	libDir, store := testutil.TestLibrary(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	lib := librarian.New(store, db, logger)
	svc := clipservice.NewService(store, db, lib)

	return New(svc), libDir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we invoke the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_clips":
		result, err = srv.listClips(ctx, req)
	case "get_clip":
		result, err = srv.getClip(ctx, req)
	case "search_clips":
		result, err = srv.searchClips(ctx, req)
	case "update_clip_metadata":
		result, err = srv.updateClipMetadata(ctx, req)
	case "get_tagging_guide":
		result, err = srv.getTaggingGuide(ctx, req)
	case "reconcile_library":
		result, err = srv.reconcileLibrary(ctx, req)
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

func seed(t *testing.T, srv *Server, libDir, rel string) {
	t.Helper()
	testutil.WriteWAV(t, libDir, rel, 1, 8000, 800)
	r := callTool(t, srv, "reconcile_library", nil)
	if r.IsError {
		t.Fatalf("reconcile_library: %s", resultText(r))
	}
}

func TestReconcileAndListClips(t *testing.T) {
	srv, libDir := testServer(t)
	seed(t, srv, libDir, "kick.wav")

	r := callTool(t, srv, "list_clips", nil)
	if r.IsError {
		t.Fatalf("list_clips: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "kick.wav") {
		t.Errorf("listing = %s", resultText(r))
	}
}

func TestGetClip(t *testing.T) {
	srv, libDir := testServer(t)
	seed(t, srv, libDir, "snare.wav")

	r := callTool(t, srv, "get_clip", map[string]interface{}{"path": "snare.wav"})
	if r.IsError {
		t.Fatalf("get_clip: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "snare.wav") || !strings.Contains(text, "sample_rate") {
		t.Errorf("detail = %s", text)
	}

	r = callTool(t, srv, "get_clip", map[string]interface{}{"path": "ghost.wav"})
	if !r.IsError {
		t.Error("expected error for missing clip")
	}
}

func TestUpdateMetadataAndSearch(t *testing.T) {
	srv, libDir := testServer(t)
	seed(t, srv, libDir, "pad.wav")

	r := callTool(t, srv, "update_clip_metadata", map[string]interface{}{
		"path":        "pad.wav",
		"tags":        "ambient, warm",
		"description": "slow evolving texture",
	})
	if r.IsError {
		t.Fatalf("update_clip_metadata: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "ambient") {
		t.Errorf("update result = %s", resultText(r))
	}

	r = callTool(t, srv, "search_clips", map[string]interface{}{"query": "evolving"})
	if r.IsError {
		t.Fatalf("search_clips: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "pad.wav") {
		t.Errorf("search result = %s", resultText(r))
	}
}

func TestListClipsTagFilter(t *testing.T) {
	srv, libDir := testServer(t)
	seed(t, srv, libDir, "a.wav")
	seed(t, srv, libDir, "b.wav")
	callTool(t, srv, "update_clip_metadata", map[string]interface{}{
		"path": "a.wav",
		"tags": "drums",
	})

	r := callTool(t, srv, "list_clips", map[string]interface{}{"tag": "drums"})
	text := resultText(r)
	if !strings.Contains(text, "a.wav") || strings.Contains(text, "b.wav") {
		t.Errorf("filtered listing = %s", text)
	}
}

func TestTaggingGuide(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_tagging_guide", nil)
	if !strings.Contains(resultText(r), "kebab-case") {
		t.Errorf("guide = %s", resultText(r))
	}
}
