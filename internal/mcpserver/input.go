package mcpserver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/apicompiler/compiler"
	"github.com/erraggy/apicompiler/internal/pathutil"
)

// contentScheme prefixes the locator given to inline content so that its
// own "#/..." references resolve through the cache.
const contentScheme = "content:"

// docInput represents the three ways a document can be provided to a tool.
// Exactly one of File, URL, or Content must be set.
type docInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a YAML or JSON document on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"http or https URL to fetch the document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline document content (JSON or YAML)"`
}

// load reads the document and returns the locator it is cached under
// together with its root node.
func (d docInput) load(s *session) (string, *yaml.Node, error) {
	count := 0
	for _, v := range []string{d.File, d.URL, d.Content} {
		if v != "" {
			count++
		}
	}
	if count != 1 {
		return "", nil, fmt.Errorf("exactly one of file, url, or content must be provided (got %d)", count)
	}

	switch {
	case d.File != "":
		if pathutil.IsAbsoluteURL(d.File) {
			return "", nil, fmt.Errorf("file must be a local path; use url for %s", d.File)
		}
		node, err := s.reader.ReadInfoForFile(d.File)
		return d.File, node, err

	case d.URL != "":
		if _, ok := pathutil.HTTPScheme(d.URL); !ok {
			return "", nil, fmt.Errorf("url must be an absolute http or https URL: %s", d.URL)
		}
		node, err := s.reader.ReadInfoForFile(d.URL)
		return d.URL, node, err

	default:
		if len(d.Content) > s.cfg.MaxInlineSize {
			return "", nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set APICOMPILER_MAX_INLINE_SIZE to increase",
				len(d.Content), s.cfg.MaxInlineSize)
		}
		h := sha256.Sum256([]byte(d.Content))
		locator := contentScheme + hex.EncodeToString(h[:])
		node, err := s.reader.ReadInfoFromBytes(locator, []byte(d.Content))
		return locator, node, err
	}
}

// render serializes node in format, which defaults to yaml.
func render(node *yaml.Node, format string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case "", "yaml":
		data, err = compiler.Marshal(node)
	case "json":
		data, err = compiler.MarshalJSON(node)
	default:
		return "", fmt.Errorf("invalid format %q; valid formats: yaml, json", format)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// kindOf names the shape of node for tool output.
func kindOf(node *yaml.Node) string {
	switch {
	case compiler.IsMapping(node):
		return "mapping"
	case compiler.IsSequence(node):
		return "sequence"
	case compiler.Display(node) == "null":
		return "null"
	default:
		return "scalar"
	}
}

// topLevelKeys returns the keys of a mapping in document order.
func topLevelKeys(node *yaml.Node) []string {
	var keys []string
	compiler.MapEntries(node, func(k, _ *yaml.Node) {
		keys = append(keys, k.Value)
	})
	return keys
}
