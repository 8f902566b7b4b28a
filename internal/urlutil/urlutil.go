// Package urlutil canonicalizes article URLs so that one article maps to
// exactly one stored row. The canonical form is the natural dedup key.
package urlutil

import (
	"errors"
	"net/url"
	"strings"
)

// ErrNotStorable marks URLs that cannot serve as an article key, such as
// relative links or strings that fail to parse.
var ErrNotStorable = errors.New("url is not storable")

// Canonicalize normalizes a raw URL into its canonical form:
// host lowercased, query and fragment dropped, empty path replaced with "/",
// and one trailing slash trimmed. Path case is preserved since news URLs
// are case-sensitive in practice. Canonicalize is idempotent.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrNotStorable
	}
	if u.Scheme == "" || u.Host == "" {
		return "", ErrNotStorable
	}

	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""

	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = u.Path[:len(u.Path)-1]
	}
	u.RawPath = ""

	return u.String(), nil
}

// Host returns the lowercased host of a URL, or "" when it does not parse.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// SameDomain reports whether the URL's hostname is the given domain or a
// subdomain of it. Ports are ignored.
func SameDomain(raw, domain string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
