package search

import (
	"sort"

	"github.com/kailas-cloud/ideascout/internal/domain/item"
)

// DefaultThreshold is the minimum similarity an item needs to be delivered.
const DefaultThreshold = 0.3

// Rank drops unscored items and items below threshold, sorts the rest by
// descending similarity (ties keep their input order), truncates to limit
// and normalizes each item for delivery.
func Rank(items []item.Item, threshold float64, limit int) []map[string]any {
	kept := make([]item.Item, 0, len(items))
	for _, it := range items {
		if !it.Scored() || it.Similarity() < threshold {
			continue
		}
		kept = append(kept, it)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Similarity() > kept[j].Similarity()
	})

	if limit >= 0 && len(kept) > limit {
		kept = kept[:limit]
	}

	out := make([]map[string]any, len(kept))
	for i, it := range kept {
		out[i] = it.Normalize()
	}
	return out
}
