package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.yaml.in/yaml/v4"

	"github.com/erraggy/apicompiler/compiler"
	"github.com/erraggy/apicompiler/internal/pathutil"
)

type readInput struct {
	Doc     docInput `json:"doc"               jsonschema:"The document to read"`
	Pointer string   `json:"pointer,omitempty" jsonschema:"Slash-separated mapping keys selecting a subtree, e.g. /components/schemas/Pet"`
	Expand  bool     `json:"expand,omitempty"  jsonschema:"Replace every $ref with its target before returning"`
	Format  string   `json:"format,omitempty"  jsonschema:"Output format: yaml (default) or json"`
}

type readOutput struct {
	Locator  string   `json:"locator"`
	Kind     string   `json:"kind"`
	Keys     []string `json:"keys,omitempty"`
	Document string   `json:"document"`
}

func (s *session) handleRead(_ context.Context, _ *mcp.CallToolRequest, input readInput) (*mcp.CallToolResult, readOutput, error) {
	locator, node, err := input.Doc.load(s)
	if err != nil {
		return errResult(err), readOutput{}, nil
	}

	if input.Pointer != "" {
		node, err = selectPointer(node, input.Pointer)
		if err != nil {
			return errResult(err), readOutput{}, nil
		}
	}

	if input.Expand {
		node, err = s.reader.Expand(locator, node)
		if err != nil {
			return errResult(err), readOutput{}, nil
		}
	}

	doc, err := render(node, input.Format)
	if err != nil {
		return errResult(err), readOutput{}, nil
	}
	return nil, readOutput{
		Locator:  locator,
		Kind:     kindOf(node),
		Keys:     topLevelKeys(node),
		Document: doc,
	}, nil
}

// selectPointer follows the mapping keys of pointer from node.
func selectPointer(node *yaml.Node, pointer string) (*yaml.Node, error) {
	for _, key := range pathutil.FragmentSegments(pointer) {
		next := compiler.MapValueForKey(node, key)
		if next == nil {
			return nil, fmt.Errorf("pointer %s: key %q not found", pointer, key)
		}
		node = next
	}
	return node, nil
}
