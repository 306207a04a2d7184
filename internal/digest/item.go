// Package digest holds the pipeline's data model and the quota-constrained
// selection that decides which items make the daily digest.
package digest

import (
	"strings"
	"time"
)

// Bucket tags used to balance topic diversity.
const (
	BucketResearch = "research"
	BucketIndustry = "industry"
	BucketFun      = "fun"
)

// BucketOrder is the fixed concatenation order of quota picks. The order is
// itself a tie-break and must be preserved.
var BucketOrder = []string{BucketResearch, BucketIndustry, BucketFun}

// DefaultTotal is the default digest size.
const DefaultTotal = 12

// DefaultRatios returns the default per-bucket share of the digest.
func DefaultRatios() map[string]float64 {
	return map[string]float64{
		BucketResearch: 0.35,
		BucketIndustry: 0.40,
		BucketFun:      0.25,
	}
}

// Item is a single digest candidate. Everything up to Excerpt is fixed at
// ingestion time; the enrichment fields below it are set exactly once, after
// selection and before ranking. JSON tag order is the publication order.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Bucket      string    `json:"bucket"`
	PublishedAt time.Time `json:"published_at"`
	Excerpt     string    `json:"excerpt"`

	Summary      string `json:"summary"`
	Why          string `json:"why"`
	ImpactScore  int    `json:"impact_score"`
	Tweet        string `json:"tweet"`
	DisplayTitle string `json:"display_title"`
}

// Enrichment is the structured result of the generative gateway for one item.
type Enrichment struct {
	Summary      string
	Why          string
	ImpactScore  int
	Tweet        string
	DisplayTitle string
}

// ApplyEnrichment attaches the enrichment fields to the item.
func (it *Item) ApplyEnrichment(e Enrichment) {
	it.Summary = e.Summary
	it.Why = e.Why
	it.ImpactScore = e.ImpactScore
	it.Tweet = e.Tweet
	it.DisplayTitle = e.DisplayTitle
}

// DedupKey identifies duplicates: the lowercased URL, or the lowercased
// title when the entry carries no URL.
func (it Item) DedupKey() string {
	if it.URL != "" {
		return strings.ToLower(it.URL)
	}
	return strings.ToLower(it.Title)
}

// Digest is the published artifact for one calendar day.
type Digest struct {
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`
	Items       []Item    `json:"items"`
	Top3        []string  `json:"top3"`
}
