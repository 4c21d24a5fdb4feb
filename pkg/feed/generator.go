package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/umputun/newswatch/pkg/domain"
)

// Generator re-publishes recorded history as an RSS feed
type Generator struct {
	baseURL string
	title   string
}

// NewGenerator creates a new feed generator, title names the watched company
func NewGenerator(baseURL, title string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		title:   title,
	}
}

// GenerateRSS creates an RSS 2.0 feed from history entries, newest first.
// Empty category means all entries.
func (g *Generator) GenerateRSS(entries []domain.HistoryEntry, category domain.Category) (string, error) {
	title := g.title + " - all news"
	selfLink := g.baseURL + "/rss"
	if category != "" {
		title = fmt.Sprintf("%s - %s", g.title, category)
		selfLink = fmt.Sprintf("%s/rss/%s", g.baseURL, category)
	}

	rssItems := make([]*RSSItem, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if category != "" && e.Category != category {
			continue
		}
		rssItems = append(rssItems, &RSSItem{
			Title:      e.Title,
			Link:       e.Link,
			GUID:       e.Link,
			PubDate:    e.Date,
			Categories: []string{string(e.Category)},
		})
	}

	feed := &RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &RSSChannel{
			Title:         title,
			Link:          g.baseURL + "/",
			Description:   fmt.Sprintf("News mentions of %s", g.title),
			AtomLink:      &AtomLink{Href: selfLink, Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: time.Now().Format(time.RFC1123Z),
			Items:         rssItems,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}

	return xml.Header + string(output), nil
}
