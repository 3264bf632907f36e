// Package compiler provides the format-independent core used by API
// description decoders: positional contexts, error collection, a caching
// document reader with $ref resolution, and vendor extension handlers.
//
// # Contexts and errors
//
// Decoders walk a parsed document while carrying a *Context that names the
// current position. Every problem found becomes a *CompilerError located at
// that Context, and all of them are returned together as an *ErrorGroup:
//
//	[3,5] $root.info.title value must be a string
//
// FromErrors returns nil for an empty slice, so a nil group means success.
// ErrorGroup implements Unwrap() []error, and CompilerError supports
// errors.Is with the sentinels ErrIO, ErrYAML and ErrHTTP as well as its
// Cause (ErrUnresolvedReference, ErrCircularReference and friends).
//
// # Reading documents
//
// A Reader loads documents by locator. Locators beginning with http:// or
// https:// are fetched remotely; anything else is a local path. Parsed trees
// are *yaml.Node values from go.yaml.in/yaml/v4. Both raw bytes and parsed
// trees are cached in a *Cache, which may be shared between Readers:
//
//	cache := compiler.NewCache()
//	r := compiler.NewReader(
//		compiler.WithCache(cache),
//		compiler.WithLogger(compiler.NewSlogAdapter(slog.Default())),
//	)
//	node, err := r.ReadInfoForRef("specs/api.yaml", "common.yaml#/definitions/Error")
//
// ReadInfoForRef resolves a single reference. Expand replaces every $ref in
// a tree with its target, recursively, and reports circular references.
//
// A CacheWatcher drops cache entries for local files when they change on
// disk.
//
// # Extensions
//
// A root Context created with NewRootContextWithExtensions carries a list of
// ExtensionHandler values that every descendant inherits. CallExtension
// offers an extension node to each handler in order. ProcessHandler runs an
// external program and exchanges the request over standard input and output.
//
// # Metrics
//
// NewMetrics creates Prometheus collectors for cache lookups, fetches,
// parses, reference resolution and extension calls. Attach them with
// WithMetrics and CallExtensionWithMetrics.
package compiler
