// Package publish writes the finished digest documents: a dated snapshot, a
// rolling latest pointer, and a small meta document, locally and optionally
// into a remote dataset repo.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruwya/daily-digest/internal/digest"
	"github.com/ruwya/daily-digest/internal/hub"
	"github.com/ruwya/daily-digest/internal/metrics"
	"github.com/ruwya/daily-digest/internal/retry"
)

type meta struct {
	Top3 []string `json:"top3"`
}

// Publisher writes digest artifacts. hub may be nil for local-only runs.
type Publisher struct {
	outDir string
	repo   string
	hub    *hub.Client
	retry  retry.Config
}

func New(outDir, repo string, hubClient *hub.Client, retryCfg retry.Config) *Publisher {
	return &Publisher{outDir: outDir, repo: repo, hub: hubClient, retry: retryCfg}
}

// Publish renders and writes all three artifacts. Local writes must succeed;
// remote uploads are retried and any final failure fails the run, since a
// digest nobody can read is a wasted run.
func (p *Publisher) Publish(ctx context.Context, d digest.Digest) error {
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	doc, err := renderJSON(d)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}
	metaDoc, err := renderJSON(meta{Top3: d.Top3})
	if err != nil {
		return fmt.Errorf("render meta: %w", err)
	}

	local := map[string][]byte{
		d.Date + ".json": doc,
		"latest.json":    doc,
		"meta.json":      metaDoc,
	}
	for name, data := range local {
		path := filepath.Join(p.outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		metrics.Global.AddArtifactsPublished(1)
	}
	slog.Info("local artifacts written", "dir", p.outDir, "date", d.Date, "items", len(d.Items))

	if p.hub == nil || p.repo == "" {
		slog.Info("no dataset repo configured, skipping upload")
		return nil
	}

	uploads := []struct {
		path string
		data []byte
	}{
		{"daily/" + d.Date + ".json", doc},
		{"latest.json", doc},
		{"meta.json", metaDoc},
	}
	for _, up := range uploads {
		up := up
		err := retry.WithRetry(ctx, p.retry, func() error {
			return p.hub.UploadFile(ctx, p.repo, up.path, up.data)
		})
		if err != nil {
			return fmt.Errorf("upload %s to %s: %w", up.path, p.repo, err)
		}
		metrics.Global.AddArtifactsPublished(1)
	}
	slog.Info("dataset upload complete", "repo", p.repo, "date", d.Date)
	return nil
}

func renderJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
