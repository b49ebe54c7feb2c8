// Package pathsrc produces the ordered set of page paths to compare.
//
// Three strategies exist: a static list, sitemap ingestion, and a
// breadth-first crawl of in-page links. All three funnel through the
// same normalization and exclusion rules so a page has exactly one
// identity regardless of how it was discovered.
package pathsrc

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizePath reduces a URL (absolute or relative) to the canonical
// path string used for dedup, exclusion matching, and filenames.
// The path component is percent-decoded and NFC-normalized, the
// fragment is always dropped, and the query is kept verbatim only
// when keepQuery is set. Normalization is idempotent: decoded "%",
// "?", and "#" are re-escaped so the result parses back to itself.
func NormalizePath(raw string, keepQuery bool) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("pathsrc: parse %q: %w", raw, err)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	path = escapePathDelims(norm.NFC.String(path))

	if !keepQuery || u.RawQuery == "" {
		return path, nil
	}
	return path + "?" + u.RawQuery, nil
}

// escapePathDelims re-escapes the characters a URL parser treats as
// structure. u.Path is the decoded form, so a path like "/a%3Fb"
// decodes to "/a?b"; left alone, re-parsing would split it at the "?"
// and normalization would not be a fixed point.
func escapePathDelims(path string) string {
	if !strings.ContainsAny(path, "%?#") {
		return path
	}
	var b strings.Builder
	b.Grow(len(path) + 2)
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '%':
			b.WriteString("%25")
		case '?':
			b.WriteString("%3F")
		case '#':
			b.WriteString("%23")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// SameOrigin reports whether rawURL shares scheme-independent host
// identity with origin. Hosts compare case-insensitively, ports
// included, matching browser same-origin behavior for navigation.
func SameOrigin(rawURL, origin string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	o, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host != "" && strings.EqualFold(u.Host, o.Host)
}

// Origin extracts "scheme://host" from a root URL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("pathsrc: parse origin %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("pathsrc: %q has no scheme or host", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// ResolveAgainst joins a normalized path back onto a root URL, so the
// same path can be requested from both deployments.
func ResolveAgainst(root, path string) (string, error) {
	base, err := url.Parse(root)
	if err != nil {
		return "", fmt.Errorf("pathsrc: parse root %q: %w", root, err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("pathsrc: parse path %q: %w", path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// SortPaths orders paths shallow-first: by number of path separators,
// then lexicographically. The result is independent of discovery order.
func SortPaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		ci, cj := strings.Count(paths[i], "/"), strings.Count(paths[j], "/")
		if ci != cj {
			return ci < cj
		}
		return paths[i] < paths[j]
	})
}
