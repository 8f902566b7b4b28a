package scrape

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pheye/internal/urlutil"
)

// Adapter knows how to find article URLs for one source.
type Adapter interface {
	// Source returns the source key used in schedules, tasks, and rows.
	Source() string

	// Disabled reports whether the source is configured but switched off.
	// Disabled sources finalize their runs as success with zero articles.
	Disabled() bool

	// Discover returns candidate article URLs, most recent first, up to
	// limit.
	Discover(ctx context.Context, f *Fetcher, limit int) ([]string, error)

	// Selectors returns the site's extraction selectors.
	Selectors() Selectors
}

// Registry maps source keys to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Source()] = a
	}
	return r
}

// Get looks up an adapter by source key.
func (r *Registry) Get(source string) (Adapter, bool) {
	a, ok := r.adapters[source]
	return a, ok
}

// Sources returns registered source keys in sorted order.
func (r *Registry) Sources() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// siteAdapter is the shared adapter implementation. Discovery tries RSS
// feeds first and falls back to scanning section pages for article links.
type siteAdapter struct {
	source      string
	domain      string
	feeds       []string
	sections    []string
	linkFilter  *regexp.Regexp // article URLs must match; nil accepts all
	strictPaths bool           // require an article-shaped path on top of linkFilter
	selectors   Selectors
	disabled    bool
}

func (a *siteAdapter) Source() string       { return a.source }
func (a *siteAdapter) Disabled() bool       { return a.disabled }
func (a *siteAdapter) Selectors() Selectors { return a.selectors }

func (a *siteAdapter) Discover(ctx context.Context, f *Fetcher, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	var found []string
	seen := make(map[string]bool)
	add := func(raw string) bool {
		if !a.acceptable(raw) {
			return false
		}
		canonical, err := urlutil.Canonicalize(raw)
		if err != nil || seen[canonical] {
			return false
		}
		seen[canonical] = true
		found = append(found, raw)
		return len(found) >= limit
	}

	for _, feedURL := range a.feeds {
		if len(found) >= limit {
			return found, nil
		}
		links, err := fetchFeedLinks(ctx, f, a.source, feedURL)
		if err != nil {
			f.log.Warn("feed discovery failed", "source", a.source, "feed", feedURL, "error", err.Error())
			continue
		}
		for _, link := range links {
			if add(link) {
				return found, nil
			}
		}
	}

	var lastErr error
	for _, sectionURL := range a.sections {
		if len(found) >= limit {
			break
		}
		doc, err := f.Document(ctx, a.source, sectionURL)
		if err != nil {
			lastErr = err
			f.log.Warn("section discovery failed", "source", a.source, "section", sectionURL, "error", err.Error())
			continue
		}
		base, err := url.Parse(sectionURL)
		if err != nil {
			continue
		}
		full := true
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			resolved := resolveHref(base, href)
			if resolved == "" {
				return true
			}
			full = !add(resolved)
			return full
		})
	}

	if len(found) == 0 && lastErr != nil {
		return nil, fmt.Errorf("discovering %s articles: %w", a.source, lastErr)
	}
	return found, nil
}

// indexPathPattern rejects tag/author/search indexes, pagination tails,
// account pages, and static assets. News sites link these from every
// page and the per-site link filters are too loose to keep them out.
var indexPathPattern = regexp.MustCompile(`(?i)(` +
	`/feed/|/search|/tags?/|/author/|/newsletter|/subscribe|/login|/register` +
	`|/wp-|/tachyon/|/latest-from|/topics?/|/section/|/categor(y|ies)/` +
	`|/page/\d+/?$|/latest/?$` +
	`|\.(css|js|png|jpe?g|gif|svg|webp|avif|mp4|pdf)(\?|$))`)

// yearPathPattern spots a date segment in an article path.
var yearPathPattern = regexp.MustCompile(`/20\d{2}/`)

// acceptable filters discovered hrefs down to same-domain article URLs.
func (a *siteAdapter) acceptable(raw string) bool {
	if !urlutil.SameDomain(raw, a.domain) {
		return false
	}
	if indexPathPattern.MatchString(raw) {
		return false
	}
	if a.linkFilter != nil && !a.linkFilter.MatchString(raw) {
		return false
	}
	if a.strictPaths && !looksLikeArticlePath(raw) {
		return false
	}
	return true
}

// looksLikeArticlePath applies the stricter shape check behind
// USE_URL_FILTER: the path must carry a date segment, or be at least two
// segments deep ending in a hyphenated slug.
func looksLikeArticlePath(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if yearPathPattern.MatchString(u.Path) {
		return true
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 {
		return false
	}
	slug := segments[len(segments)-1]
	return len(slug) > 8 && strings.Contains(slug, "-")
}

// resolveHref turns a page href into an absolute http(s) URL.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
