// Package app wires the pipeline: pull feeds, select the day's items,
// enrich, rank, archive, publish.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruwya/daily-digest/internal/config"
	"github.com/ruwya/daily-digest/internal/digest"
	"github.com/ruwya/daily-digest/internal/enrich"
	"github.com/ruwya/daily-digest/internal/feed"
	"github.com/ruwya/daily-digest/internal/gemini"
	"github.com/ruwya/daily-digest/internal/hub"
	"github.com/ruwya/daily-digest/internal/metrics"
	"github.com/ruwya/daily-digest/internal/publish"
	"github.com/ruwya/daily-digest/internal/retry"
	"github.com/ruwya/daily-digest/internal/scrape"
	"github.com/ruwya/daily-digest/internal/storage"
)

// Run executes one complete digest run.
func Run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()
	defer func() {
		metrics.Global.RecordRunDuration(time.Since(start))
	}()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("unknown timezone, using UTC", "timezone", cfg.Timezone)
		loc = time.UTC
	}

	sources, err := feed.LoadSources(cfg.SourcesPath)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("load sources: %w", err)
	}
	slog.Info("sources loaded", "count", len(sources))

	fetcher := feed.NewFetcher(cfg.RequestTimeout, cfg.FetchConcurrency, cfg.ExcerptMaxChars)
	candidates := fetcher.FetchAll(ctx, sources)
	metrics.Global.AddItemsCollected(len(candidates))
	slog.Info("candidates collected", "count", len(candidates))

	selected := digest.Select(candidates, cfg.BucketRatios, cfg.DigestTotal)
	metrics.Global.SetItemsSelected(len(selected))
	slog.Info("items selected", "count", len(selected), "total", cfg.DigestTotal)

	var (
		summarizer enrich.Summarizer
		ranker     enrich.Ranker
	)
	if cfg.GeminiAPIKey != "" {
		ai, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxGeminiRequests)
		if err != nil {
			slog.Warn("gemini unavailable, enrichment falls back", "err", err)
		} else {
			defer ai.Close()
			summarizer = ai
			ranker = ai
		}
	} else {
		slog.Info("no gemini api key, enrichment falls back to excerpts")
	}

	var contents map[string]string
	if summarizer != nil && cfg.ScrapeMaxArticles > 0 {
		extractor := scrape.New(cfg.RequestTimeout, cfg.ScrapeMaxArticles)
		contents = extractor.ExtractAll(ctx, selected)
		slog.Info("article text extracted", "count", len(contents))
	}

	enriched := enrich.New(summarizer).Apply(ctx, selected, contents)
	top3 := enrich.TopThree(ctx, ranker, enriched)

	now := time.Now()
	doc := digest.Digest{
		Date:        now.In(loc).Format("2006-01-02"),
		GeneratedAt: now.UTC(),
		Items:       enriched,
		Top3:        top3,
	}

	if cfg.ArchiveDatabaseURL != "" {
		archive, err := storage.NewArchive(cfg.ArchiveDatabaseURL)
		if err != nil {
			slog.Warn("archive unavailable, continuing without it", "err", err)
		} else {
			defer archive.Close()
			if err := archive.SaveRun(ctx, doc); err != nil {
				slog.Warn("archive save failed", "err", err)
			}
		}
	}

	var hubClient *hub.Client
	if cfg.DatasetRepoID != "" {
		hubClient = hub.New(cfg.DatasetBaseURL, cfg.DatasetToken)
	}
	publisher := publish.New(cfg.OutDir, cfg.DatasetRepoID, hubClient, retry.Config{
		Attempts: cfg.RetryAttempts,
		Delay:    cfg.RetryDelay,
		Backoff:  true,
	})
	if err := publisher.Publish(ctx, doc); err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("publish digest: %w", err)
	}

	metrics.Global.SetLastRun()
	slog.Info("run complete", "date", doc.Date, "items", len(doc.Items), "top3", doc.Top3, "took", time.Since(start))
	return nil
}
