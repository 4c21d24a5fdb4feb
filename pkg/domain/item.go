package domain

import "time"

// NewsItem represents a candidate item during a single run
type NewsItem struct {
	Title       string
	Link        string
	Published   string    // raw publish date, kept for history and display fallback
	PublishedAt time.Time // parsed publish date, run time if missing
	Estimated   bool      // publish date was missing or unparseable
	Category    Category
}

// HistoryEntry is the durable record of a processed item.
// Date holds the publish date exactly as received from the feed.
type HistoryEntry struct {
	Title    string   `json:"title"`
	Link     string   `json:"link"`
	Date     string   `json:"date"`
	Category Category `json:"category"`
}

// Entry converts a processed item to its history record
func (n NewsItem) Entry() HistoryEntry {
	return HistoryEntry{Title: n.Title, Link: n.Link, Date: n.Published, Category: n.Category}
}
