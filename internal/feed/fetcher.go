// Package feed pulls syndication feeds and normalizes their entries into
// digest items.
package feed

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ruwya/daily-digest/internal/digest"
	"github.com/ruwya/daily-digest/internal/metrics"
	"github.com/ruwya/daily-digest/internal/textutil"
)

// Per-feed cap keeps one noisy source from flooding the candidate pool.
const maxEntriesPerFeed = 15

var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Fetcher pulls all configured sources concurrently.
type Fetcher struct {
	parser      *gofeed.Parser
	concurrency int
	excerptMax  int
	now         func() time.Time
}

func NewFetcher(timeout time.Duration, concurrency, excerptMax int) *Fetcher {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{
		parser:      p,
		concurrency: concurrency,
		excerptMax:  excerptMax,
		now:         time.Now,
	}
}

// FetchAll pulls every source and merges the results, newest first. A source
// that fails or times out is logged and skipped; the run continues with
// whatever the healthy sources produced.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) []digest.Item {
	var (
		mu    sync.Mutex
		items []digest.Item
		wg    sync.WaitGroup
		sem   = make(chan struct{}, f.concurrency)
	)

	for _, src := range sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			got, err := f.fetchOne(ctx, src)
			if err != nil {
				slog.Error("feed fetch failed", "source", src.Name, "url", src.URL, "err", err)
				metrics.Global.IncrementSourcesFailed()
				return
			}
			metrics.Global.IncrementSourcesFetched()

			mu.Lock()
			items = append(items, got...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	digest.SortByRecency(items)
	return items
}

func (f *Fetcher) fetchOne(ctx context.Context, src Source) ([]digest.Item, error) {
	parsed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := parsed.Items
	if len(entries) > maxEntriesPerFeed {
		entries = entries[:maxEntriesPerFeed]
	}

	items := make([]digest.Item, 0, len(entries))
	for _, e := range entries {
		title := textutil.Clean(e.Title)
		if title == "" {
			continue
		}
		body := textutil.Clean(e.Description)
		if body == "" {
			body = textutil.Clean(e.Content)
		}
		items = append(items, digest.Item{
			ID:          StableID(e.Link),
			Title:       title,
			URL:         e.Link,
			Source:      src.Name,
			Bucket:      src.Category,
			PublishedAt: resolvePublished(e, f.now),
			Excerpt:     textutil.Excerpt(body, f.excerptMax),
		})
	}
	return items, nil
}

// StableID derives a short stable identifier from the entry URL, so the same
// story gets the same id on every run. Entries without a URL get a
// time-derived id instead.
func StableID(url string) string {
	basis := url
	if basis == "" {
		basis = time.Now().UTC().Format(time.RFC3339Nano)
	}
	sum := md5.Sum([]byte(basis))
	return hex.EncodeToString(sum[:])[:16]
}

// resolvePublished picks the best available timestamp for an entry: the
// published string, then updated, then the parsed variants, then now. All
// results are UTC.
func resolvePublished(e *gofeed.Item, now func() time.Time) time.Time {
	for _, raw := range []string{e.Published, e.Updated} {
		if raw == "" {
			continue
		}
		for _, layout := range publishedLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC()
			}
		}
	}
	if e.PublishedParsed != nil {
		return e.PublishedParsed.UTC()
	}
	if e.UpdatedParsed != nil {
		return e.UpdatedParsed.UTC()
	}
	return now().UTC()
}
