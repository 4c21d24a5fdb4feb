package feed

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/umputun/newswatch/pkg/domain"
)

// Params defines the search feed query and transport settings
type Params struct {
	BaseURL    string
	Keywords   []string
	WindowDays int
	Language   string
	Region     string
	Edition    string
	Timeout    time.Duration
	UserAgent  string
}

// Fetcher queries the search feed for entries matching the configured keywords
type Fetcher struct {
	client    *http.Client
	userAgent string
	feedURL   string
	policy    *bluemonday.Policy
}

// NewFetcher makes a fetcher with the search URL built from params
func NewFetcher(p Params) (*Fetcher, error) {
	if len(p.Keywords) == 0 {
		return nil, fmt.Errorf("no keywords")
	}
	feedURL, err := SearchURL(p.BaseURL, BuildQuery(p.Keywords, p.WindowDays), p.Language, p.Region, p.Edition)
	if err != nil {
		return nil, fmt.Errorf("make search url: %w", err)
	}
	if p.Timeout == 0 {
		p.Timeout = 30 * time.Second
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: p.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: p.UserAgent,
		feedURL:   feedURL,
		policy:    bluemonday.StrictPolicy(),
	}, nil
}

// URL returns the search feed URL
func (f *Fetcher) URL() string { return f.feedURL }

// Fetch retrieves the feed and returns its entries in provider order.
// Entries without a link are dropped as they can't be deduplicated.
func (f *Fetcher) Fetch(ctx context.Context) ([]domain.FeedEntry, error) {
	lgr.Printf("[INFO] fetching %s", f.feedURL)

	body, err := f.fetch(ctx, f.feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	res := make([]domain.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			lgr.Printf("[WARN] skipping entry without link: %q", item.Title)
			continue
		}

		entry := domain.FeedEntry{
			Title:     f.cleanTitle(item.Title),
			Link:      link,
			Published: item.Published,
		}
		if entry.Published == "" {
			entry.Published = item.Updated
		}

		// parse publish time
		if item.PublishedParsed != nil {
			ts := *item.PublishedParsed
			entry.PublishedAt = &ts
		} else if item.UpdatedParsed != nil {
			ts := *item.UpdatedParsed
			entry.PublishedAt = &ts
		}

		res = append(res, entry)
	}

	lgr.Printf("[DEBUG] fetched %d entries", len(res))
	return res, nil
}

// cleanTitle strips markup and entities, collapsing whitespace
func (f *Fetcher) cleanTitle(title string) string {
	cleaned := html.UnescapeString(f.policy.Sanitize(title))
	return strings.Join(strings.Fields(cleaned), " ")
}

// fetch retrieves content from a URL
func (f *Fetcher) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	addBrowserHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}
