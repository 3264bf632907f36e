package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type cacheInput struct {
	Action  string `json:"action"            jsonschema:"One of: stats, clear, invalidate"`
	Locator string `json:"locator,omitempty" jsonschema:"Document locator to drop; required for invalidate"`
}

type cacheOutput struct {
	Action      string `json:"action"`
	Enabled     bool   `json:"enabled"`
	FileEntries int    `json:"file_entries"`
	InfoEntries int    `json:"info_entries"`
	Hits        int    `json:"hits"`
	Misses      int    `json:"misses"`
}

func (s *session) handleCache(_ context.Context, _ *mcp.CallToolRequest, input cacheInput) (*mcp.CallToolResult, cacheOutput, error) {
	cache := s.reader.Cache()

	switch input.Action {
	case "stats":
	case "clear":
		cache.ClearCaches()
	case "invalidate":
		if input.Locator == "" {
			return errResult(fmt.Errorf("invalidate requires a locator")), cacheOutput{}, nil
		}
		cache.Invalidate(input.Locator)
	default:
		return errResult(fmt.Errorf("invalid action %q; valid actions: stats, clear, invalidate", input.Action)), cacheOutput{}, nil
	}

	hits, misses := s.lookupCounts()
	return nil, cacheOutput{
		Action:      input.Action,
		Enabled:     cache.FileCacheEnabled() && cache.InfoCacheEnabled(),
		FileEntries: cache.FileCacheLen(),
		InfoEntries: cache.InfoCacheLen(),
		Hits:        hits,
		Misses:      misses,
	}, nil
}
