package domain

import "time"

// FeedEntry is a raw candidate returned by the search feed, in provider order
type FeedEntry struct {
	Title       string
	Link        string
	Published   string     // publish date as received from the feed, may be empty
	PublishedAt *time.Time // parsed publish date, nil if missing or unparseable
}
