package scrape

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
)

// RSS feed structures used during discovery. Only the link fields matter;
// titles and bodies come from the article pages themselves.

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Links []atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// fetchFeedLinks retrieves a feed and returns its item links in document
// order.
func fetchFeedLinks(ctx context.Context, f *Fetcher, source, feedURL string) ([]string, error) {
	body, err := f.fetch(ctx, source, feedURL)
	if err != nil {
		return nil, err
	}
	return parseFeedLinks(body)
}

// parseFeedLinks decodes RSS first, then Atom.
func parseFeedLinks(body string) ([]string, error) {
	var rss rssFeed
	if err := xml.Unmarshal([]byte(body), &rss); err == nil && len(rss.Channel.Items) > 0 {
		links := make([]string, 0, len(rss.Channel.Items))
		for _, item := range rss.Channel.Items {
			if link := strings.TrimSpace(item.Link); link != "" {
				links = append(links, link)
			}
		}
		return links, nil
	}

	var atom atomFeed
	if err := xml.Unmarshal([]byte(body), &atom); err == nil && len(atom.Entries) > 0 {
		var links []string
		for _, entry := range atom.Entries {
			for _, l := range entry.Links {
				if l.Rel != "" && l.Rel != "alternate" {
					continue
				}
				if href := strings.TrimSpace(l.Href); href != "" {
					links = append(links, href)
					break
				}
			}
		}
		return links, nil
	}

	return nil, fmt.Errorf("unrecognized feed format")
}
