// Package scrape pulls full article text from story pages so enrichment can
// work from more than the feed excerpt. Everything here is best effort; a
// page that will not yield text is simply skipped.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ruwya/daily-digest/internal/digest"
)

const (
	minArticleChars  = 200
	maxArticleRunes  = 6000
	minParagraphLen  = 30
	fetchConcurrency = 3
)

var contentSelectors = []string{"article", "main", "[role=main]", "body"}

// Extractor fetches and extracts readable article text.
type Extractor struct {
	client      *http.Client
	maxArticles int
}

func New(timeout time.Duration, maxArticles int) *Extractor {
	return &Extractor{
		client:      &http.Client{Timeout: timeout},
		maxArticles: maxArticles,
	}
}

// ExtractAll fetches article text for up to maxArticles items and returns a
// map keyed by item id. Items without a URL and pages that fail to extract
// are left out.
func (e *Extractor) ExtractAll(ctx context.Context, items []digest.Item) map[string]string {
	limit := len(items)
	if e.maxArticles > 0 && limit > e.maxArticles {
		limit = e.maxArticles
	}

	var (
		mu  sync.Mutex
		out = make(map[string]string)
		wg  sync.WaitGroup
		sem = make(chan struct{}, fetchConcurrency)
	)
	for _, it := range items[:limit] {
		if it.URL == "" {
			continue
		}
		wg.Add(1)
		go func(it digest.Item) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			text, err := e.Extract(ctx, it.URL)
			if err != nil {
				slog.Debug("article extraction skipped", "url", it.URL, "err", err)
				return
			}
			mu.Lock()
			out[it.ID] = text
			mu.Unlock()
		}(it)
	}
	wg.Wait()
	return out
}

// Extract fetches one page and pulls its main text: paragraphs inside the
// first matching content container, chrome stripped.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; daily-digest/1.0)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	doc.Find("script, style, nav, header, footer, aside").Remove()

	for _, sel := range contentSelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		text := collectParagraphs(container)
		if len(text) >= minArticleChars {
			return truncate(text), nil
		}
	}
	return "", fmt.Errorf("no usable article text")
}

func collectParagraphs(s *goquery.Selection) string {
	var parts []string
	s.Find("p").Each(func(_ int, p *goquery.Selection) {
		t := strings.TrimSpace(p.Text())
		if len(t) > minParagraphLen {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n\n")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxArticleRunes {
		return s
	}
	return string(r[:maxArticleRunes])
}
