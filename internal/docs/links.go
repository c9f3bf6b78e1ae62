package docs

import (
	"fmt"
	"net/url"
	"strings"
)

// URIScheme prefixes the resource URIs scaladex hands out.
const URIScheme = "scaladoc://"

// MemberURI builds a scaladoc:// URI for a relative index link
// (page or page#anchor) within a source.
func MemberURI(source, link string) string {
	return URIScheme + source + "/" + link
}

// ParseURI splits a scaladoc:// URI into its source, page and anchor.
// The scheme is optional so users can type "source/page#anchor".
func ParseURI(uri string) (source, page, anchor string, err error) {
	rest := strings.TrimPrefix(uri, URIScheme)
	source, link, ok := strings.Cut(rest, "/")
	if !ok || source == "" || link == "" {
		return "", "", "", fmt.Errorf("invalid URI %q: need source/page", uri)
	}
	page, anchor, _ = strings.Cut(link, "#")
	if page == "" {
		return "", "", "", fmt.Errorf("invalid URI %q: empty page", uri)
	}
	return source, page, anchor, nil
}

// ResolveLink joins a relative index link onto the documentation site root.
// The anchor is appended verbatim: Scaladoc anchors contain characters such as
// '>' and '[' that browsers accept but url.URL would re-escape.
func ResolveLink(baseURL, link string) (string, error) {
	if baseURL == "" {
		return link, nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	page, anchor, hasAnchor := strings.Cut(link, "#")
	ref, err := url.Parse(page)
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", link, err)
	}
	out := base.ResolveReference(ref).String()
	if hasAnchor {
		out += "#" + anchor
	}
	return out, nil
}

// SiteURLToURI converts an absolute documentation URL under baseURL to a
// scaladoc:// URI. Returns "" if rawURL is not under baseURL.
func SiteURLToURI(source, baseURL, rawURL string) string {
	if baseURL == "" {
		return ""
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	rest, ok := strings.CutPrefix(rawURL, baseURL)
	if !ok || rest == "" {
		return ""
	}

	page, anchor, hasAnchor := strings.Cut(rest, "#")
	page, _, _ = strings.Cut(page, "?")
	if page == "" || strings.HasSuffix(page, "/") {
		return ""
	}
	if unescaped, err := url.PathUnescape(page); err == nil {
		page = unescaped
	}
	if hasAnchor && anchor != "" {
		return MemberURI(source, page+"#"+anchor)
	}
	return MemberURI(source, page)
}
