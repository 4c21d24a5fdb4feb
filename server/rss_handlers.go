package server

import (
	"log"
	"net/http"

	"github.com/umputun/newswatch/pkg/feed"
)

// rssHandler serves recorded history as RSS.
// Supports both /rss/{category} and /rss?category=... patterns
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// get category from path or query params
	raw := r.PathValue("category")
	if raw == "" {
		raw = r.URL.Query().Get("category")
	}
	category, err := categoryParam(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.history.Load(ctx)
	if err != nil {
		log.Printf("[ERROR] failed to load history for RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	baseURL, title := s.config.GetRSSConfig()
	generator := feed.NewGenerator(baseURL, title)

	rss, err := generator.GenerateRSS(entries, category)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}
