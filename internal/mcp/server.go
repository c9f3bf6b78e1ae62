package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jcdickinson/scaladex/internal/daemon"
	"github.com/jcdickinson/scaladex/internal/docs"
	"github.com/jcdickinson/scaladex/internal/rpc"
)

//go:embed instructions.md
var instructions string

// backend is the daemon API the tools call.
type backend interface {
	Import(ctx context.Context, req rpc.ImportRequest, onProgress func(string)) ([]rpc.SourceResult, error)
	Search(ctx context.Context, req rpc.SearchRequest) (*rpc.SearchResponse, error)
	Get(ctx context.Context, req rpc.GetRequest) (*rpc.GetResponse, error)
	Status(ctx context.Context) (*rpc.StatusResponse, error)
}

type Server struct {
	mcpServer *server.MCPServer
	client    backend
	fetcher   *docs.Fetcher
}

func NewServer(socketPath string, fetchTimeout time.Duration) (*Server, error) {
	client, err := daemon.ConnectOrSpawn(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w", err)
	}
	return newServer(client, docs.NewFetcher(fetchTimeout)), nil
}

func newServer(client backend, fetcher *docs.Fetcher) *Server {
	s := &Server{client: client, fetcher: fetcher}

	mcpServer := server.NewMCPServer(
		"scaladex",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("import_index",
			mcp.WithDescription("Load Scaladoc index.js files into the local store. Each source has a short name and a location: a local file, a directory containing index.js, or an http(s) URL. Synchronous, returns when complete. Unchanged sources are skipped unless force is set."),
			importSchema,
			mcp.WithBoolean("force",
				mcp.Description("Re-store sources even if their bytes are unchanged"),
			),
		),
		s.handleImport,
	)

	mcpServer.AddTool(
		mcp.NewTool("search_index",
			mcp.WithDescription("Search imported Scaladoc indexes for packages, objects, classes, traits and members by name. Supports filters: kind:def, pkg:scala.collection, owner:scala.AnyRef. Returns scaladoc:// URIs that can be read as resources."),
			mcp.WithString("query",
				mcp.Description("Name or partial name, optionally with filters"),
				mcp.Required(),
			),
			mcp.WithArray("sources",
				mcp.Description("Optional list of source names to search within"),
				mcp.Items(map[string]interface{}{"type": "string"}),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results"),
			),
		),
		s.handleSearch,
	)

	mcpServer.AddTool(
		mcp.NewTool("validate_index",
			mcp.WithDescription("Check a Scaladoc index.js for structural problems without importing it: unknown kinds, broken links, missing inherited members, entries outside their package."),
			mcp.WithString("location",
				mcp.Description("File, directory containing index.js, or http(s) URL"),
				mcp.Required(),
			),
		),
		s.handleValidate,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_sources",
			mcp.WithDescription("List imported sources with their package, object and member counts."),
		),
		s.handleListSources,
	)
}

func importSchema(t *mcp.Tool) {
	t.InputSchema.Required = append(t.InputSchema.Required, "sources")
	t.InputSchema.Properties["sources"] = map[string]any{
		"type":        "array",
		"description": "Indexes to import",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Short source name used in URIs (e.g., \"mill\")",
				},
				"location": map[string]any{
					"type":        "string",
					"description": "Path or URL of index.js",
				},
			},
			"required": []string{"name", "location"},
		},
	}
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"scaladoc://{source}/{path}",
			"Scaladoc entry",
			mcp.WithTemplateDescription("Read an object, class, trait, package or member page. Search results return these URIs."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sourcesRaw, ok := args["sources"]
	if !ok {
		return mcp.NewToolResultError("missing required parameter: sources"), nil
	}

	sourcesJSON, err := json.Marshal(sourcesRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid sources parameter: %v", err)), nil
	}

	var specs []rpc.SourceSpec
	if err := json.Unmarshal(sourcesJSON, &specs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid sources format: %v", err)), nil
	}
	if len(specs) == 0 {
		return mcp.NewToolResultError("sources must not be empty"), nil
	}

	force, _ := args["force"].(bool)
	results, err := s.client.Import(ctx, rpc.ImportRequest{Sources: specs, Force: force}, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to import: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	searchReq := rpc.SearchRequest{Query: query}
	if sourcesRaw, ok := args["sources"]; ok {
		sourcesJSON, _ := json.Marshal(sourcesRaw)
		json.Unmarshal(sourcesJSON, &searchReq.Sources)
	}
	if limit, ok := args["limit"].(float64); ok {
		searchReq.Limit = int(limit)
	}

	resp, err := s.client.Search(ctx, searchReq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	location, _ := req.GetArguments()["location"].(string)
	if location == "" {
		return mcp.NewToolResultError("missing required parameter: location"), nil
	}

	result := s.fetcher.Check(ctx, location)
	resultJSON, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleListSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.client.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	resultJSON, _ := json.MarshalIndent(resp.Sources, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	if _, _, _, err := docs.ParseURI(uri); err != nil {
		return nil, fmt.Errorf("invalid resource URI: %w", err)
	}

	resp, err := s.client.Get(ctx, rpc.GetRequest{URI: uri})
	if err != nil {
		return nil, fmt.Errorf("getting doc: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     resp.Markdown,
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
