package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func TestWriteTree(t *testing.T) {
	dir := WriteTree(t, map[string]string{
		"a.yaml":        "a: 1\n",
		"nested/b.yaml": "b: 2\n",
	})

	data, err := os.ReadFile(filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "nested", "b.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "b: 2\n", string(data))
}

func TestWriteTempYAML(t *testing.T) {
	path := WriteTempYAML(t, map[string]any{"title": "Test API"})
	assert.Equal(t, "test.yaml", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "Test API", got["title"])
}

func TestWriteTempJSON(t *testing.T) {
	path := WriteTempJSON(t, map[string]any{"title": "Test API"})
	assert.Equal(t, "test.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Test API", got["title"])
}

func TestPetstoreYAMLParses(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(PetstoreYAML), &doc))
	assert.Contains(t, doc, "components")
}
