package compiler

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/apicompiler"
	"github.com/erraggy/apicompiler/internal/testutil"
)

const widgetDoc = `defs:
  Widget:
    type: object
    properties:
      name:
        type: string
`

func TestReadBytesForFile(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{"a.yaml": "a: 1\n"})
	r := NewReader()

	data, err := r.ReadBytesForFile(filepath.Join(dir, "a.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(data))

	_, err = r.ReadBytesForFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "IO error: ")
}

func TestReadInfoFromBytes(t *testing.T) {
	m := NewMetrics(nil)
	r := NewReader(WithMetrics(m))

	first, err := r.ReadInfoFromBytes("a.yaml", []byte("title: x\n"))
	require.NoError(t, err)
	second, err := r.ReadInfoFromBytes("a.yaml", []byte("ignored: because cached\n"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.InDelta(t, 1, promtestutil.ToFloat64(m.parses), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(m.cacheLookups.WithLabelValues("info", "hit")), 0)
}

func TestReadInfoFromBytesAnonymous(t *testing.T) {
	m := NewMetrics(nil)
	r := NewReader(WithMetrics(m))

	for range 2 {
		node, err := r.ReadInfoFromBytes("", []byte("a: 1\n"))
		require.NoError(t, err)
		assert.True(t, IsMapping(node))
	}
	assert.InDelta(t, 2, promtestutil.ToFloat64(m.parses), 0)
	assert.Zero(t, r.Cache().InfoCacheLen())
}

func TestReadInfoFromBytesInfoCacheDisabled(t *testing.T) {
	m := NewMetrics(nil)
	r := NewReader(WithMetrics(m))
	r.Cache().DisableInfoCache()

	for range 2 {
		_, err := r.ReadInfoFromBytes("a.yaml", []byte("a: 1\n"))
		require.NoError(t, err)
	}
	assert.InDelta(t, 2, promtestutil.ToFloat64(m.parses), 0)
	assert.Zero(t, r.Cache().InfoCacheLen())
}

func TestReadInfoFromBytesErrors(t *testing.T) {
	r := NewReader()

	_, err := r.ReadInfoFromBytes("bad.yaml", []byte{0xff, 0xfe, 'a'})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrYAML)
	assert.Equal(t, "YAML error: bad.yaml: invalid UTF-8", err.Error())

	_, err = r.ReadInfoFromBytes("broken.yaml", []byte("a: [1, 2\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrYAML)
	assert.Contains(t, err.Error(), "broken.yaml")

	_, ok := r.Cache().getInfo("broken.yaml")
	assert.False(t, ok, "failed parses are not cached")
}

func TestReadInfoFromBytesEmpty(t *testing.T) {
	node, err := NewReader().ReadInfoFromBytes("empty.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, "null", Display(node))
}

func TestReadInfoForRef(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"dir/a.yaml": "local:\n  value: 1\nwidget:\n  $ref: b.yaml#/defs/Widget\n",
		"dir/b.yaml": widgetDoc,
	})
	base := filepath.Join(dir, "dir", "a.yaml")

	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"relative file", base, "b.yaml#/defs/Widget", "{object}"},
		{"same document", base, "#/local/value", "1 (integer)"},
		{"same document root", base, "#", "{object}"},
		{"absolute file", "", filepath.Join(dir, "dir", "b.yaml") + "#/defs/Widget/type", "object (string)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader()
			node, err := r.ReadInfoForRef(tt.base, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Display(node))
		})
	}
}

func TestReadInfoForRefCached(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"a.yaml": "x: 1\n",
		"b.yaml": widgetDoc,
	})
	base := filepath.Join(dir, "a.yaml")
	r := NewReader()

	first, err := r.ReadInfoForRef(base, "b.yaml#/defs/Widget")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "b.yaml")))

	second, err := r.ReadInfoForRef(base, "b.yaml#/defs/Widget")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestReadInfoForRefUnresolved(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"a.yaml": "x: 1\n",
		"b.yaml": widgetDoc,
	})
	base := filepath.Join(dir, "a.yaml")
	r := NewReader()

	_, err := r.ReadInfoForRef(base, "b.yaml#/defs/Missing")
	require.Error(t, err)
	assert.Equal(t, "could not resolve b.yaml#/defs/Missing", err.Error())
	assert.ErrorIs(t, err, ErrUnresolvedReference)

	// The failure is remembered, so the file is not consulted again.
	require.NoError(t, os.Remove(filepath.Join(dir, "b.yaml")))

	_, err = r.ReadInfoForRef(base, "b.yaml#/defs/Missing")
	require.Error(t, err)
	assert.Equal(t, "could not resolve b.yaml#/defs/Missing", err.Error())
	assert.NotErrorIs(t, err, ErrIO)
}

func TestReadInfoForRefMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := NewReader().ReadInfoForRef(filepath.Join(dir, "a.yaml"), "nope.yaml#/x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
}

func TestReadInfoForRefNonMappingStep(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{"a.yaml": "list: [1, 2]\n"})
	_, err := NewReader().ReadInfoForRef(filepath.Join(dir, "a.yaml"), "#/list/0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedReference)
}

func TestReadInfoForRefThroughAlias(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"a.yaml": "base: &b\n  Widget:\n    type: object\ndefs: *b\n",
	})
	base := filepath.Join(dir, "a.yaml")
	r := NewReader()

	doc, err := r.ReadInfoForFile(base)
	require.NoError(t, err)
	assert.True(t, IsMapping(MapValueForKey(doc, "defs")))
	assert.NotNil(t, MapValueForKey(MapValueForKey(doc, "defs"), "Widget"))

	widget, err := r.ReadInfoForRef(base, "#/defs/Widget")
	require.NoError(t, err)
	typ, ok := StringForScalarNode(MapValueForKey(widget, "type"))
	require.True(t, ok)
	assert.Equal(t, "object", typ)
}

func TestCanonicalRef(t *testing.T) {
	assert.Equal(t, "dir/a.yaml#/Code", CanonicalRef("dir/a.yaml", "#/Code"))
	assert.Equal(t, "dir/b.yaml#/Code", CanonicalRef("dir/a.yaml", "b.yaml#/Code"))
	assert.Equal(t, "dir/b.yaml#", CanonicalRef("dir/a.yaml", "b.yaml"))
}

func TestReadInfoForRefSameFragmentDifferentDocuments(t *testing.T) {
	dir := testutil.WriteTree(t, map[string]string{
		"a.yaml": "Code:\n  type: integer\n",
		"b.yaml": "Code:\n  type: string\n",
	})
	r := NewReader()

	a, err := r.ReadInfoForRef("", CanonicalRef(filepath.Join(dir, "a.yaml"), "#/Code"))
	require.NoError(t, err)
	b, err := r.ReadInfoForRef("", CanonicalRef(filepath.Join(dir, "b.yaml"), "#/Code"))
	require.NoError(t, err)

	aType, _ := StringForScalarNode(MapValueForKey(a, "type"))
	bType, _ := StringForScalarNode(MapValueForKey(b, "type"))
	assert.Equal(t, "integer", aType)
	assert.Equal(t, "string", bType)
}

func TestRemoteFetch(t *testing.T) {
	var requests atomic.Int32
	var userAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requests.Add(1)
		userAgent.Store(req.Header.Get("User-Agent"))
		switch req.URL.Path {
		case "/specs/a.yaml":
			_, _ = w.Write([]byte("widget:\n  $ref: b.yaml#/defs/Widget\n"))
		case "/specs/b.yaml":
			_, _ = w.Write([]byte(widgetDoc))
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	m := NewMetrics(prometheus.NewRegistry())
	r := NewReader(WithHTTPClient(srv.Client()), WithMetrics(m))
	base := srv.URL + "/specs/a.yaml"

	for range 2 {
		node, err := r.ReadInfoForFile(base)
		require.NoError(t, err)
		assert.True(t, MapHasKey(node, "widget"))
	}
	assert.Equal(t, int32(1), requests.Load(), "second read is served from the cache")
	assert.Equal(t, apicompiler.UserAgent(), userAgent.Load())

	node, err := r.ReadInfoForRef(base, "b.yaml#/defs/Widget")
	require.NoError(t, err)
	assert.Equal(t, "{object}", Display(node))
	assert.Equal(t, int32(2), requests.Load())
	assert.InDelta(t, 2, promtestutil.ToFloat64(m.fetches.WithLabelValues("http", "success")), 0)

	_, err = r.ReadBytesForFile(srv.URL + "/missing.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTP)
	assert.Contains(t, err.Error(), "404")
	_, ok := r.Cache().getFile(srv.URL + "/missing.yaml")
	assert.False(t, ok, "failed downloads are not cached")
}

func TestRemoteFetchConcurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(widgetDoc))
	}))
	defer srv.Close()

	r := NewReader(WithHTTPClient(srv.Client()))
	locator := srv.URL + "/b.yaml"

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = r.ReadBytesForFile(locator)
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, widgetDoc, string(results[i]))
	}
}

func TestHTTPSDisabled(t *testing.T) {
	r := NewReader(WithHTTPS(false))
	_, err := r.ReadBytesForFile("https://example.invalid/api.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
	assert.ErrorIs(t, err, ErrHTTP)
}

func TestNewReaderOptions(t *testing.T) {
	cache := NewCache()
	r := NewReader(WithCache(cache), WithMaxRefDepth(-1), WithUserAgent("custom/1.0"))
	assert.Same(t, cache, r.Cache())
	assert.Equal(t, DefaultMaxRefDepth, r.maxRefDepth)
	assert.Equal(t, "custom/1.0", r.userAgent)

	// Readers sharing a cache share parsed documents.
	other := NewReader(WithCache(cache))
	n1, err := r.ReadInfoFromBytes("shared.yaml", []byte("a: 1\n"))
	require.NoError(t, err)
	n2, err := other.ReadInfoFromBytes("shared.yaml", []byte("a: 2\n"))
	require.NoError(t, err)
	assert.Same(t, n1, n2)
}
