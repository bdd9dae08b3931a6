package docpipe

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/docload/kit"
)

// RegisterMCP registers docpipe tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerLoadTool(srv)
	p.registerClassifyTool(srv)
	p.registerFormatsTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- load ---

type loadReq struct {
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func (r *loadReq) file() File {
	name := r.Filename
	if name == "" {
		name = filepath.Base(r.Path)
	}
	return File{Filename: name, ContentType: r.ContentType, Path: r.Path}
}

func (p *Pipeline) registerLoadTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docpipe_load",
		Description: "Load a file and return its normalised text documents with metadata.",
		InputSchema: inputSchema(map[string]any{
			"path":         map[string]any{"type": "string", "description": "File path to load"},
			"filename":     map[string]any{"type": "string", "description": "Original filename (defaults to the base of path)"},
			"content_type": map[string]any{"type": "string", "description": "Declared MIME type, if known"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*loadReq)
		if r.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		return p.Load(ctx, r.file())
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(p.logger, "docpipe_load")(endpoint), kit.DecodeJSON[loadReq]())
}

// --- classify ---

func (p *Pipeline) registerClassifyTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docpipe_classify",
		Description: "Report which loader a file would be dispatched to, from its filename and declared MIME type.",
		InputSchema: inputSchema(map[string]any{
			"filename":     map[string]any{"type": "string", "description": "Filename including extension"},
			"content_type": map[string]any{"type": "string", "description": "Declared MIME type, if known"},
		}, []string{"filename"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		r := req.(*loadReq)
		return map[string]any{"kind": string(p.Classify(r.file()))}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, kit.DecodeJSON[loadReq]())
}

// --- formats ---

func (p *Pipeline) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "docpipe_formats",
		Description: "List the file extensions with a dedicated loader and every loader kind.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{
			"formats":       SupportedFormats(),
			"kinds":         SupportedKinds(),
			"remote":        p.cfg.remoteActive(),
			"max_file_size": p.cfg.MaxFileSize,
		}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
