package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/erraggy/apicompiler/compiler"
)

type resolveInput struct {
	Base   string `json:"base"             jsonschema:"Locator (file path or URL) of the document that contains the reference"`
	Ref    string `json:"ref"              jsonschema:"The $ref value, e.g. common.yaml#/definitions/Error or #/components/schemas/Pet"`
	Expand bool   `json:"expand,omitempty" jsonschema:"Also replace every $ref inside the resolved fragment"`
	Format string `json:"format,omitempty" jsonschema:"Output format: yaml (default) or json"`
}

type resolveOutput struct {
	Locator  string `json:"locator"`
	Kind     string `json:"kind"`
	Document string `json:"document"`
}

func (s *session) handleResolve(_ context.Context, _ *mcp.CallToolRequest, input resolveInput) (*mcp.CallToolResult, resolveOutput, error) {
	if input.Base == "" || input.Ref == "" {
		return errResult(fmt.Errorf("base and ref are both required")), resolveOutput{}, nil
	}

	// The cache is shared across calls, so "#/x" must be keyed by its
	// document or one base would answer for another.
	node, err := s.reader.ReadInfoForRef("", compiler.CanonicalRef(input.Base, input.Ref))
	if errors.Is(err, compiler.ErrUnresolvedReference) {
		return errResult(fmt.Errorf("could not resolve %s", input.Ref)), resolveOutput{}, nil
	}
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}

	// Nested references are relative to the document holding the target.
	locator := compiler.RefLocator(input.Base, input.Ref)
	if input.Expand {
		node, err = s.reader.Expand(locator, node)
		if err != nil {
			return errResult(err), resolveOutput{}, nil
		}
	}

	doc, err := render(node, input.Format)
	if err != nil {
		return errResult(err), resolveOutput{}, nil
	}
	return nil, resolveOutput{
		Locator:  locator,
		Kind:     kindOf(node),
		Document: doc,
	}, nil
}
