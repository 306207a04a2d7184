// Package textutil normalizes raw feed text: markup stripping, whitespace
// collapsing and sentence-bounded excerpts.
package textutil

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Clean strips all markup from raw feed text and collapses whitespace runs
// (newlines and tabs included) to single spaces. Empty or blank input yields
// the empty string. Clean is total and idempotent.
func Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapse(raw)
	}

	var b strings.Builder
	for _, root := range doc.Nodes {
		collectText(root, &b)
	}
	return collapse(b.String())
}

// collectText walks the parsed tree and joins text nodes with spaces, so
// adjacent elements don't glue their words together.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Excerpt accumulates whole sentences greedily while the running total
// (each sentence costing its rune length plus one separator) stays within
// maxChars, stopping at the first sentence that would exceed the budget.
// When not even the first sentence fits, it falls back to a hard cut of
// the first maxChars runes.
func Excerpt(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if text == "" || maxChars <= 0 {
		return ""
	}

	var picked []string
	total := 0
	for _, sent := range SplitSentences(text) {
		n := len([]rune(sent))
		if total+n+1 > maxChars {
			break
		}
		picked = append(picked, sent)
		total += n + 1
	}
	if len(picked) == 0 {
		r := []rune(text)
		if len(r) > maxChars {
			r = r[:maxChars]
		}
		return string(r)
	}
	return strings.Join(picked, " ")
}

// SplitSentences splits text at '.', '!' or '?' followed by whitespace.
// The terminator stays attached to its sentence.
func SplitSentences(text string) []string {
	var out []string
	r := []rune(text)
	start := 0
	for i := 0; i < len(r); i++ {
		if !isTerminator(r[i]) || i+1 >= len(r) || !unicode.IsSpace(r[i+1]) {
			continue
		}
		sent := strings.TrimSpace(string(r[start : i+1]))
		if sent != "" {
			out = append(out, sent)
		}
		for i+1 < len(r) && unicode.IsSpace(r[i+1]) {
			i++
		}
		start = i + 1
	}
	if start < len(r) {
		if tail := strings.TrimSpace(string(r[start:])); tail != "" {
			out = append(out, tail)
		}
	}
	return out
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
