package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"
	"time"
)

func TestSiteAdapterDiscoverFromFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel>
<item><link>%s/news/2025/06/01/first-story</link></item>
<item><link>%s/news/2025/06/01/first-story?utm=x</link></item>
<item><link>%s/news/2025/06/01/second-story</link></item>
<item><link>https://other-site.com/news/2025/06/01/foreign</link></item>
</channel></rss>`, baseURL(r), baseURL(r), baseURL(r))
	}))
	defer server.Close()

	host := serverHost(t, server.URL)
	adapter := &siteAdapter{
		source:     "rappler",
		domain:     host,
		feeds:      []string{server.URL + "/feed"},
		linkFilter: regexp.MustCompile(`/news/\d{4}/`),
	}
	fetcher := NewFetcher(FetchOptions{Timeout: 5 * time.Second})

	urls, err := adapter.Discover(context.Background(), fetcher, 10)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	// The tracking-param variant canonicalizes to the first link and the
	// foreign domain is rejected.
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want 2", urls)
	}
}

func TestSiteAdapterDiscoverFromSections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="/news/2025/06/01/story-one">One</a>
<a href="/news/2025/06/01/story-two">Two</a>
<a href="/tags/budget">Tag page</a>
<a href="#top">Anchor</a>
<a href="javascript:void(0)">JS</a>
</body></html>`)
	}))
	defer server.Close()

	adapter := &siteAdapter{
		source:     "gma",
		domain:     serverHost(t, server.URL),
		sections:   []string{server.URL + "/section"},
		linkFilter: regexp.MustCompile(`/news/\d{4}/`),
	}
	fetcher := NewFetcher(FetchOptions{Timeout: 5 * time.Second})

	urls, err := adapter.Discover(context.Background(), fetcher, 10)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want the 2 article links", urls)
	}
}

func TestSiteAdapterDiscoverRespectsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 20; i++ {
			fmt.Fprintf(w, `<a href="/news/2025/06/01/story-%d">S</a>`, i)
		}
	}))
	defer server.Close()

	adapter := &siteAdapter{
		source:     "inquirer",
		domain:     serverHost(t, server.URL),
		sections:   []string{server.URL + "/section"},
		linkFilter: regexp.MustCompile(`/news/\d{4}/`),
	}
	fetcher := NewFetcher(FetchOptions{Timeout: 5 * time.Second})

	urls, err := adapter.Discover(context.Background(), fetcher, 5)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(urls) != 5 {
		t.Errorf("got %d urls, want 5", len(urls))
	}
}

func TestAcceptableRejectsIndexAndAssetPaths(t *testing.T) {
	adapter := &siteAdapter{
		source:     "rappler",
		domain:     "rappler.com",
		linkFilter: regexp.MustCompile(`rappler\.com/[a-z][a-z-]*/[^?#]+`),
	}

	rejected := []string{
		"https://www.rappler.com/tag/corruption",
		"https://www.rappler.com/author/jane-doe",
		"https://www.rappler.com/newsbreak/page/3",
		"https://www.rappler.com/search?q=budget",
		"https://www.rappler.com/topics/senate",
		"https://www.rappler.com/nation/subscribe",
		"https://www.rappler.com/tachyon/2025/06/photo.jpg",
		"https://www.rappler.com/assets/site.css?v=3",
	}
	for _, u := range rejected {
		if adapter.acceptable(u) {
			t.Errorf("acceptable(%q) = true, want false", u)
		}
	}

	accepted := []string{
		"https://www.rappler.com/nation/house-opens-budget-hearings",
		"https://www.rappler.com/newsbreak/investigative/flood-control-audit-findings",
	}
	for _, u := range accepted {
		if !adapter.acceptable(u) {
			t.Errorf("acceptable(%q) = false, want true", u)
		}
	}
}

func TestAcceptableStrictPaths(t *testing.T) {
	adapter := &siteAdapter{source: "rappler", domain: "rappler.com", strictPaths: true}

	rejected := []string{
		"https://www.rappler.com/nation",
		"https://www.rappler.com/nation/promo",
	}
	for _, u := range rejected {
		if adapter.acceptable(u) {
			t.Errorf("acceptable(%q) = true, want false under strict paths", u)
		}
	}

	accepted := []string{
		"https://www.rappler.com/nation/house-opens-budget-hearings",
		"https://www.rappler.com/nation/2025/06/01/briefer",
	}
	for _, u := range accepted {
		if !adapter.acceptable(u) {
			t.Errorf("acceptable(%q) = false, want true under strict paths", u)
		}
	}

	// Off by default: short slugs stay acceptable.
	loose := &siteAdapter{source: "rappler", domain: "rappler.com"}
	if !loose.acceptable("https://www.rappler.com/nation/promo") {
		t.Error("strict shape check must not apply when disabled")
	}
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry(SourcesOptions{RapplerLatestMaxPages: 2})

	want := []string{"abs_cbn", "gma", "inquirer", "manila_bulletin", "manila_times", "philstar", "rappler", "sunstar"}
	got := registry.Sources()
	if len(got) != len(want) {
		t.Fatalf("Sources = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sources = %v, want %v", got, want)
		}
	}

	abs, _ := registry.Get("abs_cbn")
	if !abs.Disabled() {
		t.Error("abs_cbn should be disabled")
	}
	rappler, _ := registry.Get("rappler")
	if rappler.Disabled() {
		t.Error("rappler should be enabled")
	}
	if rappler.(*siteAdapter).strictPaths {
		t.Error("strict paths must stay off unless requested")
	}

	strict := DefaultRegistry(SourcesOptions{UseURLFilter: true})
	for _, source := range []string{"rappler", "gma", "sunstar"} {
		a, _ := strict.Get(source)
		if !a.(*siteAdapter).strictPaths {
			t.Errorf("%s should apply strict paths with the URL filter on", source)
		}
	}
}

func serverHost(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}
	return u.Hostname()
}

// baseURL returns the scheme://host base for a request, for building
// absolute links in fixture feeds.
func baseURL(r *http.Request) string {
	return "http://" + r.Host
}
