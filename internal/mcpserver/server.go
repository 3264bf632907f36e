// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes the apicompiler reader as MCP tools over stdio.
package mcpserver

import (
	"context"
	"log/slog"
	"os"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/apicompiler"
)

const serverInstructions = `apicompiler MCP server. Reads YAML or JSON documents into generic trees and resolves $ref values against them.

Configuration: All defaults are configurable via APICOMPILER_* environment variables set in your MCP client config.

Key settings:
- APICOMPILER_CACHE_ENABLED (default: true): cache fetched bytes and parsed trees for the session
- APICOMPILER_ALLOW_HTTPS (default: true): fetch https URLs
- APICOMPILER_ALLOW_PRIVATE_HOSTS (default: false): allow fetches from loopback and private addresses
- APICOMPILER_VERBOSE (default: false): log cache hits and fetches to stderr
- APICOMPILER_MAX_REF_DEPTH (default: 100): maximum $ref nesting when expanding
- APICOMPILER_MAX_INLINE_SIZE (default: 10485760): maximum inline content size in bytes

Caching: Documents are cached per session. Local files are dropped from the cache when they change on disk. Use the cache tool to inspect or clear it.`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context) error {
	c := loadConfig()
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelInfo
	}
	// Stdout carries the protocol, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	s := newSession(c, logger)
	defer s.close()

	return newServer(s).Run(ctx, &mcp.StdioTransport{})
}

func newServer(s *session) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "apicompiler", Version: apicompiler.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server, s)
	return server
}

func registerAllTools(server *mcp.Server, s *session) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_document",
		Description: "Read a YAML or JSON document from a file, URL or inline content. Returns its locator, root kind (mapping, sequence, scalar, null), top-level keys and the serialized tree. Use pointer to select a subtree such as /components/schemas/Pet and expand=true to replace every $ref with its target. Documents are cached for the session.",
	}, s.handleRead)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_ref",
		Description: "Resolve a $ref value found in the document at base. The file part of ref is relative to the directory of base; a ref starting with # points into base itself. Returns the locator of the target document and the referenced fragment. Use expand=true to also replace references inside the fragment.",
	}, s.handleResolve)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cache",
		Description: "Inspect or clear the session document cache. Actions: stats (entry counts and hit/miss totals), clear (drop everything), invalidate (drop one locator and every reference resolved through it).",
	}, s.handleCache)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
