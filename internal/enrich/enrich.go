// Package enrich applies generative enrichment to selected items and ranks
// the top stories. Every collaborator call is backed by a deterministic
// fallback derived from the item's own fields, so enrichment never fails
// outward.
package enrich

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/ruwya/daily-digest/internal/digest"
	"github.com/ruwya/daily-digest/internal/metrics"
)

// Field caps enforced on both the gateway and fallback paths (rune counts).
const (
	MaxSummaryRunes = 800
	MaxWhyRunes     = 240
	MaxTweetRunes   = 280
	MaxTitleRunes   = 160

	DefaultImpact = 5

	rankInputCap = 30
	topN         = 3
)

// Summarizer is the generative gateway for a single item. The content
// argument carries optional full-article text; implementations fall back to
// the item's excerpt when it is empty.
type Summarizer interface {
	Summarize(ctx context.Context, item digest.Item, content string) (digest.Enrichment, error)
}

// Ranker is the generative collaborator that picks the most significant
// stories out of a compact projection of the digest.
type Ranker interface {
	TopStories(ctx context.Context, items []digest.Item, n int) ([]string, error)
}

// Enricher enriches items through an optional Summarizer. A nil gateway
// means fallback-only operation.
type Enricher struct {
	ai Summarizer
}

func New(ai Summarizer) *Enricher {
	return &Enricher{ai: ai}
}

// Apply enriches every item in selection order and returns the enriched
// copy. Results attach by position, never by completion order, and a
// gateway failure on one item does not block the others. contents maps
// item id to optional full-article text.
func (e *Enricher) Apply(ctx context.Context, items []digest.Item, contents map[string]string) []digest.Item {
	out := make([]digest.Item, len(items))
	for i, it := range items {
		enr := Fallback(it)
		if e.ai != nil {
			got, err := e.ai.Summarize(ctx, it, contents[it.ID])
			if err != nil {
				slog.Warn("enrichment failed, using fallback", "id", it.ID, "title", it.Title, "err", err)
				metrics.Global.IncrementEnrichmentFallbacks()
			} else {
				enr = got
			}
		}
		it.ApplyEnrichment(sanitize(it, enr))
		out[i] = it
	}
	return out
}

// Fallback derives an enrichment purely from the item's own fields. It is
// used when no gateway is configured and when a gateway call fails, so both
// cases behave identically.
func Fallback(it digest.Item) digest.Enrichment {
	summary := it.Excerpt
	if summary == "" {
		summary = it.Title
	}
	tweet := strings.TrimSpace(truncateRunes(it.Title, 240) + " " + it.URL)
	return digest.Enrichment{
		Summary:      summary,
		ImpactScore:  DefaultImpact,
		Tweet:        tweet,
		DisplayTitle: it.Title,
	}
}

// sanitize enforces the gateway contract on whatever came back: non-empty
// summary and display title, impact within 1..10, all caps applied.
func sanitize(it digest.Item, e digest.Enrichment) digest.Enrichment {
	if strings.TrimSpace(e.Summary) == "" {
		e.Summary = it.Excerpt
		if e.Summary == "" {
			e.Summary = it.Title
		}
	}
	if strings.TrimSpace(e.DisplayTitle) == "" {
		e.DisplayTitle = it.Title
	}
	switch {
	case e.ImpactScore == 0:
		e.ImpactScore = DefaultImpact
	case e.ImpactScore < 1:
		e.ImpactScore = 1
	case e.ImpactScore > 10:
		e.ImpactScore = 10
	}
	e.Summary = truncateRunes(e.Summary, MaxSummaryRunes)
	e.Why = truncateRunes(e.Why, MaxWhyRunes)
	e.Tweet = truncateRunes(e.Tweet, MaxTweetRunes)
	e.DisplayTitle = truncateRunes(e.DisplayTitle, MaxTitleRunes)
	return e
}

// TopThree returns the ids of the 3 most significant stories (fewer only
// when fewer items exist). The collaborator's ordering is accepted only
// when it yields at least 3 ids; every other case, including a nil ranker,
// reduces to the deterministic impact/recency ordering.
func TopThree(ctx context.Context, r Ranker, items []digest.Item) []string {
	if len(items) == 0 {
		return []string{}
	}
	if r != nil {
		in := items
		if len(in) > rankInputCap {
			in = in[:rankInputCap]
		}
		ids, err := r.TopStories(ctx, in, topN)
		switch {
		case err != nil:
			slog.Warn("ranking collaborator failed, using fallback ordering", "err", err)
		case len(ids) < topN:
			slog.Warn("ranking collaborator returned too few ids, using fallback ordering", "got", len(ids))
		default:
			return ids[:topN]
		}
	}
	return fallbackTopThree(items)
}

// fallbackTopThree stable-sorts by impact score descending, then published
// time descending, and takes the first 3 ids.
func fallbackTopThree(items []digest.Item) []string {
	ranked := make([]digest.Item, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ImpactScore != ranked[j].ImpactScore {
			return ranked[i].ImpactScore > ranked[j].ImpactScore
		}
		return ranked[i].PublishedAt.After(ranked[j].PublishedAt)
	})
	n := topN
	if len(ranked) < n {
		n = len(ranked)
	}
	ids := make([]string, 0, n)
	for _, it := range ranked[:n] {
		ids = append(ids, it.ID)
	}
	return ids
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
