// Package pipeline runs a single pass of the news watch: fetch candidates,
// drop outdated and already seen items, classify, notify and record history.
//
// Items are processed sequentially, oldest first, so history keeps discovery
// order and notifications respect the push provider rate limit. Notification
// is best effort: a failed dispatch is logged and the item is still recorded,
// which means an item is never notified twice but may be notified zero times.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newswatch/pkg/domain"
	"github.com/umputun/newswatch/pkg/history"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/classifier.go -pkg mocks -skip-ensure -fmt goimports . Classifier
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier

// Fetcher returns candidate entries in provider order, typically newest first
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.FeedEntry, error)
}

// Store loads and persists the history log
type Store interface {
	Load(ctx context.Context) ([]domain.HistoryEntry, error)
	Save(ctx context.Context, entries []domain.HistoryEntry) error
}

// Classifier assigns a category to a title
type Classifier interface {
	Classify(title string) domain.Category
}

// Notifier dispatches a notification for a single item
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, item domain.NewsItem) error
}

// Config holds pipeline dependencies and settings
type Config struct {
	Fetcher    Fetcher
	Store      Store
	Classifier Classifier
	Notifier   Notifier

	Window time.Duration    // recency window, items published before now-Window are dropped
	Delay  time.Duration    // pause between notification dispatches
	DryRun bool             // classify and report only, no notifications and no history update
	Now    func() time.Time // clock, time.Now if nil
}

// Pipeline is a single-pass news processor
type Pipeline struct {
	Config
}

// Result summarizes a run
type Result struct {
	Fetched    int // entries returned by the feed
	Outdated   int // dropped by the recency window
	Duplicates int // already in history or repeated within the feed
	New        int // newly processed and recorded
	Notified   int // successfully dispatched
	Failed     int // dispatch failures, still recorded
	Items      []domain.NewsItem
}

// New makes a pipeline
func New(cfg Config) *Pipeline {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{Config: cfg}
}

// Run executes one pass. A fetch or history load error aborts the run before
// anything is persisted. If ctx is canceled mid-run, items staged so far are
// persisted and the context error is returned.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{}
	now := p.Now()
	cutoff := now.Add(-p.Window)

	hist, err := p.Store.Load(ctx)
	if err != nil {
		return res, fmt.Errorf("load history: %w", err)
	}
	seen := history.Links(hist)
	lgr.Printf("[DEBUG] loaded %d history entries", len(hist))

	entries, err := p.Fetcher.Fetch(ctx)
	if err != nil {
		return res, fmt.Errorf("fetch candidates: %w", err)
	}
	res.Fetched = len(entries)

	notify := !p.DryRun && p.Notifier != nil && p.Notifier.Enabled()
	if !notify && !p.DryRun {
		lgr.Printf("[WARN] push key is not configured, notifications disabled")
	}

	var runErr error
	staged := make([]domain.HistoryEntry, 0)
	dispatched := 0

	// provider order is newest first, walk backwards to record in chronological order
	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		item := makeItem(entries[i], now)
		if !isRecent(item.PublishedAt, cutoff) {
			lgr.Printf("[DEBUG] skip outdated %s (%s)", item.Link, item.Published)
			res.Outdated++
			continue
		}
		if _, ok := seen[item.Link]; ok {
			res.Duplicates++
			continue
		}
		seen[item.Link] = struct{}{}

		item.Category = p.Classifier.Classify(item.Title)
		lgr.Printf("[INFO] new item [%s]: %s", item.Category, item.Title)

		if notify {
			if dispatched > 0 && p.Delay > 0 {
				if err := sleep(ctx, p.Delay); err != nil {
					runErr = err
					break
				}
			}
			dispatched++
			if err := p.Notifier.Notify(ctx, item); err != nil {
				lgr.Printf("[WARN] failed to notify %s: %v", item.Link, err)
				res.Failed++
			} else {
				res.Notified++
			}
		}

		staged = append(staged, item.Entry())
		res.Items = append(res.Items, item)
	}
	res.New = len(staged)

	if p.DryRun {
		lgr.Printf("[INFO] dry run, %d new items not recorded", res.New)
		return res, runErr
	}

	if len(staged) > 0 {
		// persist even if ctx is canceled, staged items may be notified already
		if err := p.Store.Save(context.WithoutCancel(ctx), append(hist, staged...)); err != nil {
			return res, fmt.Errorf("save history: %w", err)
		}
	}

	if runErr != nil {
		return res, fmt.Errorf("run interrupted: %w", runErr)
	}
	return res, nil
}

// makeItem converts a feed entry, a missing publish date defaults to now
func makeItem(e domain.FeedEntry, now time.Time) domain.NewsItem {
	item := domain.NewsItem{Title: e.Title, Link: e.Link, Published: e.Published, PublishedAt: now, Estimated: true}
	if e.PublishedAt != nil && !e.PublishedAt.IsZero() {
		item.PublishedAt = *e.PublishedAt
		item.Estimated = false
	}
	return item
}

// isRecent is true unless ts is strictly earlier than cutoff
func isRecent(ts, cutoff time.Time) bool {
	return !ts.Before(cutoff)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
