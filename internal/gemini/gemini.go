// Package gemini implements the generative gateway on Google's Gemini API.
// It backs both per-item enrichment and top-story ranking, under a per-run
// request budget.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ruwya/daily-digest/internal/digest"
)

const DefaultModel = "gemini-1.5-flash"

// Client wraps the Gemini SDK. maxRequests caps calls per run; zero or
// negative means unlimited.
type Client struct {
	client      *genai.Client
	model       string
	maxRequests int

	mu       sync.Mutex
	requests int
}

func NewClient(ctx context.Context, apiKey, model string, maxRequests int) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: c, model: model, maxRequests: maxRequests}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// take consumes one request from the per-run budget.
func (c *Client) take() error {
	if c.maxRequests <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requests >= c.maxRequests {
		return fmt.Errorf("gemini request budget exhausted (%d)", c.maxRequests)
	}
	c.requests++
	return nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if err := c.take(); err != nil {
		return "", err
	}
	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

// Summarize asks the model for the per-item enrichment fields. The content
// argument carries optional full-article text; the excerpt is used when it
// is empty.
func (c *Client) Summarize(ctx context.Context, item digest.Item, content string) (digest.Enrichment, error) {
	body := content
	if body == "" {
		body = item.Excerpt
	}
	prompt := fmt.Sprintf(`You are an editor for a daily tech digest. Given one story, respond with ONLY a JSON object, no markdown fences, with these keys:
  "summary": 2-4 sentence plain-language summary (max 800 characters)
  "why": one sentence on why this matters (max 240 characters)
  "impact_score": integer 1-10 for significance
  "tweet": a post under 280 characters including the story URL
  "display_title": a sharpened headline (max 160 characters)

Story title: %s
Source: %s
URL: %s
Text:
%s`, item.Title, item.Source, item.URL, body)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return digest.Enrichment{}, err
	}
	return parseEnrichment(text)
}

type rankRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Source      string `json:"source"`
	ImpactScore int    `json:"impact_score"`
	Bucket      string `json:"bucket"`
}

// TopStories asks the model to pick the n most significant stories and
// returns their ids in rank order.
func (c *Client) TopStories(ctx context.Context, items []digest.Item, n int) ([]string, error) {
	rows := make([]rankRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, rankRow{
			ID: it.ID, Title: it.Title, Source: it.Source,
			ImpactScore: it.ImpactScore, Bucket: it.Bucket,
		})
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal ranking input: %w", err)
	}

	prompt := fmt.Sprintf(`You are an editor picking today's top stories. Given this JSON array of stories, choose the %d most significant ones. Respond with ONLY a JSON object of the form {"top3_ids": ["id1", "id2", "id3"]}, ids ordered most significant first, each id taken verbatim from the input.

Stories:
%s`, n, payload)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseTopIDs(text)
}

// looseInt tolerates models quoting numbers.
type looseInt int

func (l *looseInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*l = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("impact score %q is not a number", s)
	}
	*l = looseInt(int(f))
	return nil
}

func parseEnrichment(text string) (digest.Enrichment, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return digest.Enrichment{}, err
	}
	var payload struct {
		Summary      string   `json:"summary"`
		Why          string   `json:"why"`
		ImpactScore  looseInt `json:"impact_score"`
		Tweet        string   `json:"tweet"`
		DisplayTitle string   `json:"display_title"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return digest.Enrichment{}, fmt.Errorf("parse enrichment response: %w", err)
	}
	return digest.Enrichment{
		Summary:      strings.TrimSpace(payload.Summary),
		Why:          strings.TrimSpace(payload.Why),
		ImpactScore:  int(payload.ImpactScore),
		Tweet:        strings.TrimSpace(payload.Tweet),
		DisplayTitle: strings.TrimSpace(payload.DisplayTitle),
	}, nil
}

func parseTopIDs(text string) ([]string, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var payload struct {
		TopIDs []string `json:"top3_ids"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse ranking response: %w", err)
	}
	return payload.TopIDs, nil
}

// extractJSON pulls the first JSON object out of a model reply, tolerating
// markdown fences and surrounding prose.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in model response")
	}
	return text[start : end+1], nil
}
