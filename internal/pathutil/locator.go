package pathutil

import (
	"net/url"
	"strings"
)

// Supported remote schemes.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// HTTPScheme returns the scheme of locator when it is an absolute http or
// https URL with a host.
func HTTPScheme(locator string) (string, bool) {
	u, err := url.Parse(locator)
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case SchemeHTTP:
		return SchemeHTTP, true
	case SchemeHTTPS:
		return SchemeHTTPS, true
	}
	return "", false
}

// IsAbsoluteURL reports whether s parses as a URL with a scheme.
// Single-letter schemes are treated as Windows drive letters, not URLs.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return len(u.Scheme) > 1
}

// SplitRef splits ref on the first '#'. The fragment excludes the '#'.
func SplitRef(ref string) (file, fragment string) {
	file, fragment, _ = strings.Cut(ref, "#")
	return file, fragment
}

// ResolveRelative joins file onto the directory of base. When base has
// no directory component, file is returned unchanged.
func ResolveRelative(base, file string) string {
	i := strings.LastIndex(base, "/")
	if i < 0 {
		return file
	}
	if i == 0 {
		return "/" + file
	}
	return base[:i] + "/" + file
}

// FragmentSegments returns the mapping keys named by a fragment. The
// segment before the leading '/' and empty segments are skipped.
func FragmentSegments(fragment string) []string {
	parts := strings.Split(fragment, "/")
	segments := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 || p == "" {
			continue
		}
		segments = append(segments, p)
	}
	return segments
}
