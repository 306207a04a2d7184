// Package storage keeps a history of published digests in Postgres. The
// archive is optional; runs work without it.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ruwya/daily-digest/internal/digest"
)

const schema = `
CREATE TABLE IF NOT EXISTS digest_runs (
    day          DATE PRIMARY KEY,
    generated_at TIMESTAMPTZ NOT NULL,
    item_count   INTEGER NOT NULL,
    top3         JSONB NOT NULL,
    document     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_digest_runs_generated_at ON digest_runs (generated_at DESC);
`

// Archive stores one row per published day.
type Archive struct {
	db *sqlx.DB
}

func NewArchive(dsn string) (*Archive, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to archive database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// SaveRun upserts the day's digest. Re-running the same day replaces the row.
func (a *Archive) SaveRun(ctx context.Context, d digest.Digest) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}
	top3, err := json.Marshal(d.Top3)
	if err != nil {
		return fmt.Errorf("marshal top3: %w", err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO digest_runs (day, generated_at, item_count, top3, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (day) DO UPDATE SET
			generated_at = EXCLUDED.generated_at,
			item_count   = EXCLUDED.item_count,
			top3         = EXCLUDED.top3,
			document     = EXCLUDED.document`,
		d.Date, d.GeneratedAt, len(d.Items), top3, doc,
	)
	if err != nil {
		return fmt.Errorf("save run for %s: %w", d.Date, err)
	}
	return nil
}

// RunSummary is one archived day without the full document payload.
type RunSummary struct {
	Day         time.Time `db:"day"`
	GeneratedAt time.Time `db:"generated_at"`
	ItemCount   int       `db:"item_count"`
}

func (a *Archive) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 30
	}
	var runs []RunSummary
	err := a.db.SelectContext(ctx, &runs, `
		SELECT day, generated_at, item_count
		FROM digest_runs
		ORDER BY day DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	return runs, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}
