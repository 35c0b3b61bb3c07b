package gateway

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tobert/hootenanny/wire"
)

// Catalog caches the tool list a hootenanny peer advertises. It is refreshed
// when Refresh is called (at startup and on each `initialize`); a reconnect
// of the underlying client does not refresh it.
type Catalog struct {
	client *wire.Client

	mu    sync.RWMutex
	tools []mcp.Tool
}

// NewCatalog wraps a Lazy Pirate client used to refresh the tool list.
func NewCatalog(client *wire.Client) *Catalog {
	return &Catalog{client: client}
}

// Refresh asks the peer to list its tools and replaces the cached catalog.
// The peer's ToolRequestPayload uses the reserved tool name "_list_tools";
// handlers on the garden/hootenanny side recognize it as the catalog
// reflection call, not a user-facing tool.
func (c *Catalog) Refresh(ctx context.Context) error {
	reply, err := c.client.RequestWithRetry(ctx, wire.Payload{
		Kind:        wire.KindToolRequest,
		ToolRequest: &wire.ToolRequestPayload{Tool: "_list_tools"},
	})
	if err != nil {
		return err
	}
	tools, err := decodeToolList(reply)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()
	return nil
}

// List returns the currently cached tool catalog.
func (c *Catalog) List() []mcp.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]mcp.Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

func decodeToolList(env *wire.Envelope) ([]mcp.Tool, error) {
	if env.Payload.Kind == wire.KindError {
		return nil, env.Payload.Error
	}
	var tools []mcp.Tool
	if env.Payload.TypedResponse == nil {
		return nil, nil
	}
	if err := decodeJSON(env.Payload.TypedResponse.Result, &tools); err != nil {
		return nil, err
	}
	return tools, nil
}
