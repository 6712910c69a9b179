// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Clipvault library tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/whitlock/clipvault/internal/clipservice"
)

// Server wraps the MCP server with Clipvault tools.
type Server struct {
	mcp *server.MCPServer
	svc *clipservice.Service
}

// New creates a new MCP server with all Clipvault tools registered.
func New(svc *clipservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Clipvault",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_clips",
		mcp.WithDescription("List library clips, optionally filtered by tag."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
	), s.listClips)

	s.mcp.AddTool(mcp.NewTool("get_clip",
		mcp.WithDescription("Read the metadata record of one clip."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Library-relative path (e.g. drums/kick.wav)")),
	), s.getClip)

	s.mcp.AddTool(mcp.NewTool("search_clips",
		mcp.WithDescription("Search clip names, descriptions, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchClips)

	s.mcp.AddTool(mcp.NewTool("update_clip_metadata",
		mcp.WithDescription("Overwrite the tags and description of a clip. "+
			"Follow the tagging conventions; read them first via the "+
			"get_tagging_guide tool or the clipvault://tagging-guide resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Library-relative path of the clip")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag list (replaces the current set)")),
		mcp.WithString("description", mcp.Description("Free-text description")),
	), s.updateClipMetadata)

	s.mcp.AddTool(mcp.NewTool("get_tagging_guide",
		mcp.WithDescription("Returns the Clipvault tagging conventions. "+
			"Call this before updating clip metadata."),
	), s.getTaggingGuide)

	s.mcp.AddTool(mcp.NewTool("reconcile_library",
		mcp.WithDescription("Bring the metadata store into agreement with the "+
			"library directory and report added/removed/refreshed counts."),
	), s.reconcileLibrary)

	// Resource: tagging conventions.
	s.mcp.AddResource(
		mcp.NewResource("clipvault://tagging-guide", "Tagging Guide",
			mcp.WithResourceDescription("Tag and description conventions for library clips."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTaggingGuideResource,
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

func (s *Server) listClips(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := req.GetString("tag", "")
	clips, total, err := s.svc.ListClips(ctx, 200, 0, tag, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"clips": clips, "total": total}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getClip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clip, err := s.svc.GetClip(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	out, _ := json.MarshalIndent(clip, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchClips(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) updateClipMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var tags []string
	for _, t := range strings.Split(req.GetString("tags", ""), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	clip, err := s.svc.UpdateMetadata(ctx, path, tags, req.GetString("description", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(clip, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTaggingGuide(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TaggingGuide), nil
}

func (s *Server) reconcileLibrary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Reconcile(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readTaggingGuideResource(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     TaggingGuide,
		},
	}, nil
}
