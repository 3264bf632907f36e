package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.yaml.in/yaml/v4"
	"golang.org/x/sync/singleflight"

	"github.com/erraggy/apicompiler"
	"github.com/erraggy/apicompiler/internal/pathutil"
)

// DefaultMaxRefDepth is the default nesting limit for Expand.
const DefaultMaxRefDepth = 100

// Reader fetches documents, parses them into node trees and resolves $ref
// values, caching raw bytes and parsed trees in its Cache.
//
// A Reader is safe for concurrent use. Returned trees may be shared with
// the cache and with other callers; treat them as read-only.
type Reader struct {
	cache       *Cache
	client      *http.Client
	userAgent   string
	allowHTTPS  bool
	logger      Logger
	metrics     *Metrics
	watcher     *CacheWatcher
	maxRefDepth int
	verbose     atomic.Bool
	fetches     singleflight.Group
}

// Option configures a Reader.
type Option func(*Reader)

// WithCache makes the Reader use c. Readers built with the same Cache
// share fetched and parsed documents.
func WithCache(c *Cache) Option {
	return func(r *Reader) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithHTTPClient sets the client used for remote fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Reader) {
		if client != nil {
			r.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with remote fetches.
func WithUserAgent(ua string) Option {
	return func(r *Reader) {
		r.userAgent = ua
	}
}

// WithHTTPS controls whether https locators are fetched. When disabled,
// reading an https locator fails with ErrUnsupportedScheme.
func WithHTTPS(enabled bool) Option {
	return func(r *Reader) {
		r.allowHTTPS = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(r *Reader) {
		r.logger = l
	}
}

// WithMetrics records reader activity in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Reader) {
		r.metrics = m
	}
}

// WithWatcher registers every local file the Reader reads with w, so the
// cache entries are dropped when the file changes.
func WithWatcher(w *CacheWatcher) Option {
	return func(r *Reader) {
		r.watcher = w
	}
}

// WithMaxRefDepth bounds $ref nesting during Expand. Non-positive values
// select DefaultMaxRefDepth.
func WithMaxRefDepth(depth int) Option {
	return func(r *Reader) {
		r.maxRefDepth = depth
	}
}

// NewReader creates a Reader. Without WithCache it gets a private Cache.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		cache:       NewCache(),
		client:      &http.Client{Timeout: 30 * time.Second},
		userAgent:   apicompiler.UserAgent(),
		allowHTTPS:  true,
		maxRefDepth: DefaultMaxRefDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxRefDepth <= 0 {
		r.maxRefDepth = DefaultMaxRefDepth
	}
	return r
}

// Cache returns the Reader's cache.
func (r *Reader) Cache() *Cache {
	return r.cache
}

// SetVerbose promotes cache and fetch messages from Debug to Info.
func (r *Reader) SetVerbose(verbose bool) {
	r.verbose.Store(verbose)
}

func (r *Reader) log() Logger {
	if r.logger != nil {
		return r.logger
	}
	return NopLogger{}
}

func (r *Reader) trace(msg string, attrs ...any) {
	if r.verbose.Load() {
		r.log().Info(msg, attrs...)
		return
	}
	r.log().Debug(msg, attrs...)
}

// ReadBytesForFile returns the contents of locator. Absolute http and https
// URLs are fetched over the network; anything else is read from disk.
func (r *Reader) ReadBytesForFile(locator string) ([]byte, error) {
	if scheme, ok := pathutil.HTTPScheme(locator); ok {
		return r.fetch(locator, scheme)
	}

	start := time.Now()
	data, err := os.ReadFile(locator)
	r.metrics.RecordFetch("file", err, time.Since(start))
	if err != nil {
		return nil, newIOError(fmt.Sprintf("failed to read %s: %v", locator, err), err)
	}
	if r.watcher != nil {
		if werr := r.watcher.Watch(locator); werr != nil {
			r.log().Warn("could not watch file", "locator", locator, "error", werr)
		}
	}
	return data, nil
}

// fetch retrieves a remote document, consulting the byte cache first.
// Concurrent misses for the same locator share one request.
func (r *Reader) fetch(locator, scheme string) ([]byte, error) {
	if scheme == pathutil.SchemeHTTPS && !r.allowHTTPS {
		return nil, newHTTPError(fmt.Sprintf("unsupported scheme %s: %s", scheme, locator), ErrUnsupportedScheme)
	}

	cacheEnabled := r.cache.FileCacheEnabled()
	if cacheEnabled {
		data, ok := r.cache.getFile(locator)
		r.metrics.RecordCacheLookup("file", ok)
		if ok {
			r.trace("cache hit", "locator", locator)
			return data, nil
		}
	}
	r.trace("fetching", "locator", locator)

	v, err, _ := r.fetches.Do(locator, func() (any, error) {
		start := time.Now()
		data, err := r.download(locator)
		r.metrics.RecordFetch(scheme, err, time.Since(start))
		if err != nil {
			return nil, err
		}
		if cacheEnabled {
			r.cache.putFile(locator, data)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (r *Reader) download(locator string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, locator, nil)
	if err != nil {
		return nil, newHTTPError(fmt.Sprintf("failed to create request for %s: %v", locator, err), err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req) //nolint:gosec // G107 - locators are caller-provided documents
	if err != nil {
		return nil, newHTTPError(fmt.Sprintf("failed to fetch %s: %v", locator, err), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(fmt.Sprintf("error downloading %s: %s", locator, resp.Status), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newHTTPError(fmt.Sprintf("failed to read response body from %s: %v", locator, err), err)
	}
	return data, nil
}

// ReadInfoFromBytes parses data into a node tree and returns the root value
// of its first document. The result is cached under locator; an empty
// locator marks anonymous bytes that are never cached.
func (r *Reader) ReadInfoFromBytes(locator string, data []byte) (*yaml.Node, error) {
	cacheEnabled := r.cache.InfoCacheEnabled() && locator != ""
	if cacheEnabled {
		node, ok := r.cache.getInfo(locator)
		ok = ok && node != nil
		r.metrics.RecordCacheLookup("info", ok)
		if ok {
			r.trace("cache hit info", "locator", locator)
			return node, nil
		}
	}
	r.trace("reading info", "locator", locator)

	node, err := parseNode(data)
	r.metrics.RecordParse()
	if err != nil {
		if locator != "" {
			err.Message = locator + ": " + err.Message
		}
		return nil, err
	}

	if cacheEnabled {
		r.cache.putInfo(locator, node)
	}
	return node, nil
}

func parseNode(data []byte) (*yaml.Node, *CompilerError) {
	if !utf8.Valid(data) {
		return nil, newYAMLError("invalid UTF-8", nil)
	}
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return NewNullNode(), nil
		}
		return nil, newYAMLError(err.Error(), err)
	}
	if root := contentNode(&doc); root != nil {
		return root, nil
	}
	return NewNullNode(), nil
}

// ReadInfoForFile reads and parses locator. A tree already cached for
// locator is returned without reading the file again.
func (r *Reader) ReadInfoForFile(locator string) (*yaml.Node, error) {
	if locator != "" && r.cache.InfoCacheEnabled() {
		if node, ok := r.cache.getInfo(locator); ok && node != nil {
			r.metrics.RecordCacheLookup("info", true)
			r.trace("cache hit info", "locator", locator)
			return node, nil
		}
	}

	data, err := r.ReadBytesForFile(locator)
	if err != nil {
		return nil, err
	}
	return r.ReadInfoFromBytes(locator, data)
}

// ReadInfoForRef returns the node that reference points to.
//
// The file part of reference is resolved relative to the directory of
// base, the locator of the document that contains the reference; an empty
// file part refers to base itself. The fragment is a "/"-separated list
// of mapping keys. Results, including failures to find a key, are cached
// under the raw reference string.
func (r *Reader) ReadInfoForRef(base, reference string) (*yaml.Node, error) {
	node, _, err := r.readInfoForRef(base, reference)
	return node, err
}

// readInfoForRef also returns the locator the reference resolved to.
func (r *Reader) readInfoForRef(base, reference string) (*yaml.Node, string, error) {
	file, fragment := pathutil.SplitRef(reference)
	locator := resolveLocator(base, file)

	cacheEnabled := r.cache.InfoCacheEnabled()
	if cacheEnabled {
		node, ok := r.cache.getInfo(reference)
		r.metrics.RecordCacheLookup("info", ok)
		if ok {
			r.trace("cache hit for ref", "base", base, "ref", reference)
			if node == nil {
				err := unresolved(reference)
				r.metrics.RecordRefResolution(err)
				return nil, locator, err
			}
			r.metrics.RecordRefResolution(nil)
			return node, locator, nil
		}
	}
	r.trace("reading info for ref", "base", base, "ref", reference)

	info, err := r.ReadInfoForFile(locator)
	if err != nil {
		r.metrics.RecordRefResolution(err)
		return nil, locator, err
	}

	for _, key := range pathutil.FragmentSegments(fragment) {
		next := MapValueForKey(info, key)
		if next == nil {
			if cacheEnabled {
				r.cache.putRef(reference, locator, nil)
			}
			err := unresolved(reference)
			r.metrics.RecordRefResolution(err)
			return nil, locator, err
		}
		info = contentNode(next)
	}

	if cacheEnabled {
		r.cache.putRef(reference, locator, info)
	}
	r.metrics.RecordRefResolution(nil)
	return info, locator, nil
}

// RefLocator returns the locator of the document that reference, found in
// the document at base, points into.
func RefLocator(base, reference string) string {
	file, _ := pathutil.SplitRef(reference)
	return resolveLocator(base, file)
}

// CanonicalRef rewrites reference, found in the document at base, so that
// it names its target document explicitly. Passed to ReadInfoForRef with
// an empty base, the result is cached under a key that no other document
// shares, unlike a bare "#/..." reference.
func CanonicalRef(base, reference string) string {
	_, fragment := pathutil.SplitRef(reference)
	return RefLocator(base, reference) + "#" + fragment
}

// resolveLocator returns the locator named by the file part of a reference
// found in the document at base.
func resolveLocator(base, file string) string {
	switch {
	case file == "":
		return base
	case pathutil.IsAbsoluteURL(file):
		return file
	default:
		return pathutil.ResolveRelative(base, file)
	}
}

func unresolved(reference string) *CompilerError {
	return &CompilerError{
		Kind:    KindSimple,
		Message: "could not resolve " + reference,
		Cause:   ErrUnresolvedReference,
	}
}
