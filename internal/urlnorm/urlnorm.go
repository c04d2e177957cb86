// Package urlnorm resolves relative links against a base URL and rejects
// schemes that are never worth crawling, grounded in the teacher's
// fetcher.resolveRelativeURL but generalized to spec.md §4.1's contract.
package urlnorm

import (
	"net/url"
	"strings"
)

// rejectedSchemes are never worth enqueueing: mail clients, phone dialers
// and inline scripts are not fetchable resources.
var rejectedSchemes = map[string]bool{
	"mailto":     true,
	"tel":        true,
	"javascript": true,
}

// Normalize resolves link against base, strips the fragment, and returns
// the canonical serialization. It returns ("", false) for an empty link,
// a rejected scheme, or an unparsable URL.
func Normalize(base, link string) (string, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}

	if i := strings.IndexByte(link, ':'); i > 0 {
		if rejectedSchemes[strings.ToLower(link[:i])] {
			return "", false
		}
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	rel, err := url.Parse(link)
	if err != nil {
		return "", false
	}

	resolved := baseURL.ResolveReference(rel)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""
	return resolved.String(), true
}

// SameDomain reports whether a and b share a host[:port], or true
// unconditionally when sameDomainOnly is false (CRAWL_SAME_DOMAIN_ONLY).
func SameDomain(a, b string, sameDomainOnly bool) bool {
	if !sameDomainOnly {
		return true
	}
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Host == ub.Host
}

// Origin returns the scheme://host[:port] unit used for robots caching
// and crawl-delay pacing.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host, nil
}

// PathWithQuery returns the path (or "/" if empty) with "?query" appended
// when a query string is present; robots.Manager.IsAllowed uses it for
// spec.md §4.2's path computation.
func PathWithQuery(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}
