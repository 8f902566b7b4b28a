package scrape

import (
	"fmt"
	"regexp"
)

// SourcesOptions tunes source discovery.
type SourcesOptions struct {
	// RapplerLatestMaxPages extends rappler discovery across its /latest
	// pagination. Page 1 is always scanned.
	RapplerLatestMaxPages int

	// UseURLFilter adds a stricter article-shape check to discovered
	// links: the path must carry a date segment or end in a hyphenated
	// slug.
	UseURLFilter bool
}

// DefaultRegistry builds the registry of supported sources. abs_cbn is
// registered but disabled; its markup moved behind a client-side app and
// runs against it finalize as success with zero articles.
func DefaultRegistry(opts SourcesOptions) *Registry {
	rapplerSections := []string{"https://www.rappler.com/latest/"}
	for page := 2; page <= opts.RapplerLatestMaxPages; page++ {
		rapplerSections = append(rapplerSections, fmt.Sprintf("https://www.rappler.com/latest/?page=%d", page))
	}

	return NewRegistry(
		&siteAdapter{
			source:      "rappler",
			domain:      "rappler.com",
			feeds:       []string{"https://www.rappler.com/feed/"},
			sections:    rapplerSections,
			linkFilter:  regexp.MustCompile(`rappler\.com/[a-z][a-z-]*/[^?#]+`),
			strictPaths: opts.UseURLFilter,
			selectors: Selectors{
				Title:   []string{"h1.post-single__title", "article h1", "h1"},
				Content: []string{"div.post-single__content", "div.article-content", "article"},
			},
		},
		&siteAdapter{
			source: "gma",
			domain: "gmanetwork.com",
			sections: []string{
				"https://www.gmanetwork.com/news/topstories/",
				"https://www.gmanetwork.com/news/topstories/nation/",
				"https://www.gmanetwork.com/news/money/",
			},
			linkFilter:  regexp.MustCompile(`gmanetwork\.com/news/.+/story/?`),
			strictPaths: opts.UseURLFilter,
			selectors: Selectors{
				Title:   []string{"h1.story_links", "div.article-header h1", "h1"},
				Content: []string{"div.article-body", "div.story_main", "article"},
			},
		},
		&siteAdapter{
			source: "philstar",
			domain: "philstar.com",
			sections: []string{
				"https://www.philstar.com/headlines",
				"https://www.philstar.com/nation",
				"https://www.philstar.com/business",
			},
			linkFilter:  regexp.MustCompile(`philstar\.com/[a-z-]+(?:/[a-z-]+)?/\d{4}/\d{2}/\d{2}/\d+/`),
			strictPaths: opts.UseURLFilter,
			selectors: Selectors{
				Title:   []string{"div.article__title h1", "h1.article__title", "h1"},
				Content: []string{"div.article__writeup", "div#sports_article_writeup", "article"},
				Date:    []string{"meta[property='article:published_time']", "div.article__date-published", "time[datetime]"},
			},
		},
		&siteAdapter{
			source: "inquirer",
			domain: "inquirer.net",
			feeds:  []string{"https://www.inquirer.net/fullfeed/"},
			sections: []string{
				"https://newsinfo.inquirer.net/",
				"https://business.inquirer.net/",
			},
			linkFilter:  regexp.MustCompile(`inquirer\.net/\d+/`),
			strictPaths: opts.UseURLFilter,
			selectors: Selectors{
				Title:   []string{"h1.entry-title", "div#landing-headline h1", "h1"},
				Content: []string{"div#article_content", "div.article-content", "article"},
			},
		},
		&siteAdapter{
			source: "manila_bulletin",
			domain: "mb.com.ph",
			sections: []string{
				"https://mb.com.ph/category/national",
				"https://mb.com.ph/category/news",
			},
			linkFilter:  regexp.MustCompile(`mb\.com\.ph/\d{4}/`),
			strictPaths: opts.UseURLFilter,
			selectors: Selectors{
				Title:   []string{"h1.article-title", "div.mb-font-article-title h1", "h1"},
				Content: []string{"div.article-content", "div.custom-article-body", "article"},
			},
		},
		&siteAdapter{
			source: "manila_times",
			domain: "manilatimes.net",
			sections: []string{
				"https://www.manilatimes.net/news",
				"https://www.manilatimes.net/news/national",
			},
			linkFilter:  regexp.MustCompile(`manilatimes\.net/\d{4}/\d{2}/\d{2}/`),
			strictPaths: opts.UseURLFilter,
			selectors: Selectors{
				Title:   []string{"h1.article-title-h1", "div.article-title h1", "h1"},
				Content: []string{"div.article-body-content", "div.tdb-block-inner", "article"},
			},
		},
		&siteAdapter{
			source: "sunstar",
			domain: "sunstar.com.ph",
			sections: []string{
				"https://www.sunstar.com.ph/cebu",
				"https://www.sunstar.com.ph/manila",
			},
			linkFilter:  regexp.MustCompile(`sunstar\.com\.ph/[a-z-]+/[a-z-]+`),
			strictPaths: opts.UseURLFilter,
			selectors: Selectors{
				Title:   []string{"h1.story-title", "h1#story-headline", "h1"},
				Content: []string{"div.story-content", "div#story-body", "article"},
			},
		},
		&siteAdapter{
			source:   "abs_cbn",
			domain:   "news.abs-cbn.com",
			disabled: true,
		},
	)
}
