package digest

import (
	"math"
	"sort"
)

// Quota is the slot budget one bucket may fill before backfill. Every named
// bucket gets at least one slot even when its ratio rounds to zero. Quotas
// are deliberately not renormalized to sum to the digest total; backfill
// corrects any shortfall.
func Quota(total int, ratio float64) int {
	q := int(math.Round(float64(total) * ratio))
	if q < 1 {
		q = 1
	}
	return q
}

// Select picks at most total items: per-bucket quota picks in the fixed
// bucket order, recency-sorted within each bucket, then recency backfill
// across everything left (unknown buckets included), then one dedup pass,
// then truncation. The operation order quota-pick, backfill, dedup,
// truncate is fixed; dedup can shrink the result below total and there is
// no second backfill afterwards.
func Select(items []Item, ratios map[string]float64, total int) []Item {
	if total <= 0 || len(items) == 0 {
		return nil
	}
	if ratios == nil {
		ratios = DefaultRatios()
	}

	byBucket := make(map[string][]int, len(BucketOrder))
	for _, b := range BucketOrder {
		byBucket[b] = nil
	}
	for i := range items {
		if _, named := byBucket[items[i].Bucket]; named {
			byBucket[items[i].Bucket] = append(byBucket[items[i].Bucket], i)
		}
	}

	picked := make([]int, 0, total)
	inPick := make(map[int]bool, total)
	for _, b := range BucketOrder {
		idx := byBucket[b]
		sortByRecency(items, idx)
		quota := Quota(total, ratios[b])
		for _, i := range idx {
			if quota == 0 {
				break
			}
			picked = append(picked, i)
			inPick[i] = true
			quota--
		}
	}

	if len(picked) < total {
		var rest []int
		for i := range items {
			if !inPick[i] {
				rest = append(rest, i)
			}
		}
		sortByRecency(items, rest)
		for _, i := range rest {
			if len(picked) >= total {
				break
			}
			picked = append(picked, i)
			inPick[i] = true
		}
	}

	seen := make(map[string]bool, len(picked))
	out := make([]Item, 0, len(picked))
	for _, i := range picked {
		key := items[i].DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, items[i])
	}

	if len(out) > total {
		out = out[:total]
	}
	return out
}

// SortByRecency orders items newest first, preserving input order for
// identical timestamps.
func SortByRecency(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}

func sortByRecency(items []Item, idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		return items[idx[a]].PublishedAt.After(items[idx[b]].PublishedAt)
	})
}
