package mcpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/apicompiler/internal/testutil"
)

func TestHandleRead_Content(t *testing.T) {
	s := newTestSession(t, testConfig())

	result, out, err := s.handleRead(context.Background(), &mcp.CallToolRequest{}, readInput{
		Doc: docInput{Content: "a: 1\nb: [x, y]\n"},
	})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.True(t, strings.HasPrefix(out.Locator, contentScheme))
	assert.Equal(t, "mapping", out.Kind)
	assert.Equal(t, []string{"a", "b"}, out.Keys)
	assert.Equal(t, "a: 1\nb: [x, y]\n", out.Document)
}

func TestHandleRead_ContentExpand(t *testing.T) {
	s := newTestSession(t, testConfig())

	result, out, err := s.handleRead(context.Background(), &mcp.CallToolRequest{}, readInput{
		Doc:     docInput{Content: testutil.PetstoreYAML},
		Pointer: "/paths",
		Expand:  true,
		Format:  "json",
	})
	require.NoError(t, err)
	require.Nil(t, result)
	assert.Equal(t, []string{"/pets"}, out.Keys)
	assert.NotContains(t, out.Document, "$ref")
	assert.Contains(t, out.Document, `"description": "A list of pets"`)
}

func TestHandleRead_FileWithExternalRefs(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"api.yaml":          "pet:\n  $ref: 'models/pet.yaml#/Pet'\n",
		"models/pet.yaml":   "Pet:\n  type: object\n  properties:\n    owner:\n      $ref: 'owner.yaml#/Owner'\n",
		"models/owner.yaml": "Owner:\n  type: string\n",
	})
	s := newTestSession(t, testConfig())

	result, out, err := s.handleRead(context.Background(), &mcp.CallToolRequest{}, readInput{
		Doc:    docInput{File: filepath.Join(dir, "api.yaml")},
		Expand: true,
	})
	require.NoError(t, err)
	require.Nil(t, result)
	assert.Equal(t, "pet:\n    type: object\n    properties:\n        owner:\n            type: string\n", out.Document)
}

func TestHandleRead_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"openapi": "3.1.0", "paths": {}}`))
	}))
	defer srv.Close()

	t.Run("private hosts allowed", func(t *testing.T) {
		s := newTestSession(t, testConfig())
		result, out, err := s.handleRead(context.Background(), &mcp.CallToolRequest{}, readInput{
			Doc: docInput{URL: srv.URL + "/api.json"},
		})
		require.NoError(t, err)
		require.Nil(t, result)
		assert.Equal(t, srv.URL+"/api.json", out.Locator)
		assert.Equal(t, []string{"openapi", "paths"}, out.Keys)
	})

	t.Run("private hosts blocked", func(t *testing.T) {
		c := testConfig()
		c.AllowPrivateHosts = false
		s := newTestSession(t, c)
		result, _, err := s.handleRead(context.Background(), &mcp.CallToolRequest{}, readInput{
			Doc: docInput{URL: srv.URL + "/api.json"},
		})
		require.NoError(t, err)
		assert.Contains(t, errorText(t, result), "private/loopback")
	})
}

func TestHandleRead_Errors(t *testing.T) {
	c := testConfig()
	c.MaxInlineSize = 16
	s := newTestSession(t, c)
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	tests := []struct {
		name  string
		input readInput
		want  string
	}{
		{"no input", readInput{}, "exactly one of file, url, or content"},
		{"two inputs", readInput{Doc: docInput{File: "a.yaml", Content: "a: 1"}}, "(got 2)"},
		{"url as file", readInput{Doc: docInput{File: "https://example.com/api.yaml"}}, "use url"},
		{"relative url", readInput{Doc: docInput{URL: "api.yaml"}}, "absolute http or https URL"},
		{"too large", readInput{Doc: docInput{Content: strings.Repeat("a", 17)}}, "exceeds maximum 16 bytes"},
		{"missing file", readInput{Doc: docInput{File: missing}}, "IO error"},
		{"bad pointer", readInput{Doc: docInput{Content: "a: 1\n"}, Pointer: "/b"}, `key "b" not found`},
		{"bad format", readInput{Doc: docInput{Content: "a: 1\n"}, Format: "xml"}, "invalid format"},
		{"unresolved ref", readInput{Doc: docInput{Content: "a: {$ref: '#/b'}"}, Expand: true}, "could not resolve #/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _, err := s.handleRead(context.Background(), &mcp.CallToolRequest{}, tt.input)
			require.NoError(t, err)
			text := errorText(t, result)
			assert.Contains(t, text, tt.want)
			assert.NotContains(t, text, missing)
		})
	}
}

func TestKindOf(t *testing.T) {
	s := newTestSession(t, testConfig())
	tests := map[string]string{
		"a: 1":   "mapping",
		"- 1":    "sequence",
		"hello":  "scalar",
		"~":      "null",
		"":       "null",
		"'null'": "scalar",
	}
	for src, want := range tests {
		_, node, err := docInput{Content: src}.load(s)
		if src == "" {
			// Empty content is not an input.
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, want, kindOf(node), "kind of %q", src)
	}
}
