// Package ranker reorders content records by selected-tag overlap with a
// deterministic secondary sort key.
package ranker

import (
	"sort"

	"github.com/avelar/feedlight/pkg/types"
)

// Rank returns the records ordered for display. With no selected tags the
// ordering is the plain sort key (newest, likes, rating, or views, all
// descending). With selected tags, records are ordered primarily by how many
// selected tags they carry, the sort key breaking ties. The sort is stable:
// records equal on both keys keep their input order.
//
// The input slice is not modified.
func Rank(records []types.ContentRecord, selectedTags []string, sortKey types.SortKey) []types.ContentRecord {
	out := make([]types.ContentRecord, len(records))
	copy(out, records)

	if len(selectedTags) == 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return sortLess(out[i], out[j], sortKey)
		})
		return out
	}

	selected := make(map[string]struct{}, len(selectedTags))
	for _, tag := range selectedTags {
		selected[tag] = struct{}{}
	}

	counts := make([]int, len(out))
	for i, rec := range out {
		counts[i] = matchCount(rec, selected)
	}

	sort.Stable(sortable{records: out, counts: counts, key: sortKey})
	return out
}

// matchCount is |record.tags ∩ selected|. Record tags are already deduped by
// the normalizer, so plain membership counting is set intersection.
func matchCount(rec types.ContentRecord, selected map[string]struct{}) int {
	n := 0
	for _, tag := range rec.Tags {
		if _, ok := selected[tag]; ok {
			n++
		}
	}
	return n
}

// sortable sorts records and their match counts together.
type sortable struct {
	records []types.ContentRecord
	counts  []int
	key     types.SortKey
}

func (s sortable) Len() int { return len(s.records) }

func (s sortable) Swap(i, j int) {
	s.records[i], s.records[j] = s.records[j], s.records[i]
	s.counts[i], s.counts[j] = s.counts[j], s.counts[i]
}

func (s sortable) Less(i, j int) bool {
	if s.counts[i] != s.counts[j] {
		return s.counts[i] > s.counts[j]
	}
	return sortLess(s.records[i], s.records[j], s.key)
}

// sortLess orders two records by the requested sort key, descending. Equal
// values are not less, preserving input order under a stable sort.
func sortLess(a, b types.ContentRecord, key types.SortKey) bool {
	switch key {
	case types.SortLikes:
		return a.LikesCount > b.LikesCount
	case types.SortRating:
		return a.AvgRating > b.AvgRating
	case types.SortViews:
		return a.ViewsCount > b.ViewsCount
	default: // SortNewest
		return a.CreatedAt.After(b.CreatedAt)
	}
}
