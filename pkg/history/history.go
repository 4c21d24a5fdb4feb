// Package history keeps the bounded, ordered log of processed news items.
// Entries are stored oldest first; stores rewrite the whole log on Save and keep
// only the most recent entries up to the configured cap.
package history

import "github.com/umputun/newswatch/pkg/domain"

// DefaultCap is the retention cap used when none is configured
const DefaultCap = 100

// Truncate returns the most recent cap entries, preserving order.
// Non-positive cap means no truncation.
func Truncate(entries []domain.HistoryEntry, limit int) []domain.HistoryEntry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[len(entries)-limit:]
}

// Links builds the deduplication index from all stored entries
func Links(entries []domain.HistoryEntry) map[string]struct{} {
	res := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		res[e.Link] = struct{}{}
	}
	return res
}
