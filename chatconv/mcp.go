package chatconv

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/docload/kit"
)

// RegisterMCP registers the chat_convert tool on an MCP server.
func (c *Converter) RegisterMCP(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "chat_convert",
		Description: "Convert a legacy tree-shaped chat export into a flat chat record.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":          map[string]any{"type": "string"},
				"conversationId": map[string]any{"type": "string"},
				"options":        map[string]any{"type": "object", "description": "model, temperature, maxContextTokens, max_tokens"},
				"messages":       map[string]any{"type": "array", "description": "Legacy message tree; the root is the first element"},
			},
			"required": []string{"messages"},
		},
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		return c.Convert(*req.(*LegacyExport))
	}

	kit.RegisterMCPTool(srv, tool, kit.Logging(c.logger, "chat_convert")(endpoint), kit.DecodeJSON[LegacyExport]())
}
