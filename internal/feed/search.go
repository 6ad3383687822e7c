package feed

import (
	"context"

	"github.com/avelar/feedlight/internal/normalize"
	"github.com/avelar/feedlight/internal/scorer"
	"github.com/avelar/feedlight/internal/source"
	"github.com/avelar/feedlight/pkg/types"
)

// Search fetches a candidate pool from the backend and scores it
// client-side. The backend's text pattern match narrows the pool first; when
// it returns too few candidates the pool is widened with an unfiltered fetch
// so the scorer's fallback and related-set passes have material to work
// with.
//
// A backend failure is logged and degrades to an empty result; search never
// surfaces a blocking error.
func (c *Coordinator) Search(ctx context.Context, query string) scorer.Result {
	if scorer.Fold(query) == "" {
		return scorer.Result{}
	}

	pool, err := c.searchPool(ctx, query)
	if err != nil {
		c.logger.Warn("search pool fetch failed", "error", err)
		return scorer.Result{}
	}

	return scorer.Search(pool, query, c.cfg.PageSize)
}

func (c *Coordinator) searchPool(ctx context.Context, query string) ([]types.ContentRecord, error) {
	rows, err := c.src.FetchAggregate(ctx, source.AggregateQuery{
		TextPattern: query,
		Limit:       c.cfg.PageSize * 4,
	})
	if err != nil {
		return nil, err
	}
	pool := normalize.Records(rows)

	if len(pool) >= c.cfg.PageSize {
		return pool, nil
	}

	wide, err := c.src.FetchAggregate(ctx, source.AggregateQuery{
		Limit: c.cfg.SearchPoolLimit,
	})
	if err != nil {
		// The narrow pool is still usable; widening is best-effort.
		c.logger.Debug("search pool widening failed", "error", err)
		return pool, nil
	}

	return mergeRecords(pool, normalize.Records(wide)), nil
}

// mergeRecords appends extras not already present by id, preserving order.
func mergeRecords(base, extra []types.ContentRecord) []types.ContentRecord {
	seen := make(map[string]struct{}, len(base))
	for _, rec := range base {
		seen[rec.ID] = struct{}{}
	}

	out := base
	for _, rec := range extra {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}
