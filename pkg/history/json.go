package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newswatch/pkg/domain"
)

// JSONStore keeps history in a human-readable JSON file
type JSONStore struct {
	path  string
	limit int
}

// entryJSON is the on-disk form of a history entry.
// Tag is the canonical category field, Type and Category are accepted on read
// for files written by older versions.
type entryJSON struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Date     string `json:"date"`
	Tag      string `json:"tag"`
	Type     string `json:"type,omitempty"`
	Category string `json:"category,omitempty"`
}

// NewJSONStore makes a store for the given file, limit is the retention cap
func NewJSONStore(path string, limit int) *JSONStore {
	if limit <= 0 {
		limit = DefaultCap
	}
	return &JSONStore{path: path, limit: limit}
}

// Load reads all entries. A missing file is an empty history.
func (s *JSONStore) Load(_ context.Context) ([]domain.HistoryEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		lgr.Printf("[DEBUG] history file %s not found, starting empty", s.path)
		return []domain.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.HistoryEntry{}, nil
	}

	var recs []entryJSON
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", s.path, err)
	}

	res := make([]domain.HistoryEntry, 0, len(recs))
	for _, r := range recs {
		res = append(res, r.toDomain())
	}
	return res, nil
}

// Save writes the most recent entries, replacing the file atomically
func (s *JSONStore) Save(_ context.Context, entries []domain.HistoryEntry) error {
	entries = Truncate(entries, s.limit)
	recs := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		recs = append(recs, entryJSON{Title: e.Title, Link: e.Link, Date: e.Date, Tag: string(e.Category)})
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // history is not sensitive
		return fmt.Errorf("chmod history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename history: %w", err)
	}
	lgr.Printf("[DEBUG] saved %d history entries to %s", len(entries), s.path)
	return nil
}

// String returns store description for logs
func (s *JSONStore) String() string { return "json:" + s.path }

func (r entryJSON) toDomain() domain.HistoryEntry {
	raw := r.Tag
	if raw == "" {
		raw = r.Type
	}
	if raw == "" {
		raw = r.Category
	}
	cat, err := domain.ParseCategory(raw)
	if err != nil {
		cat = domain.CategoryGeneral
	}
	return domain.HistoryEntry{Title: r.Title, Link: r.Link, Date: r.Date, Category: cat}
}
