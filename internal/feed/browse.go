package feed

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avelar/feedlight/internal/normalize"
	"github.com/avelar/feedlight/internal/source"
	"github.com/avelar/feedlight/pkg/types"
)

// browseState tracks the incremental pagination-of-sections used by the
// global (unfiltered) view. Categories move from queue to loaded one batch
// at a time.
type browseState struct {
	started  bool
	queue    []string
	loaded   []string
	inFlight bool
}

// BrowseView is the consumer-facing state of the global browse.
type BrowseView struct {
	Sections []Snapshot `json:"sections"`
	// HasMore is cleared only when the category queue is exhausted.
	HasMore bool `json:"has_more"`
	// Loading reports a batch load in flight.
	Loading bool `json:"loading"`
}

// StartBrowse initializes the global view: it fetches the category queue and
// loads the first batch. Calling it again resets the queue. A category fetch
// failure is logged and degrades to an empty view rather than blocking the
// browse surface.
func (c *Coordinator) StartBrowse(ctx context.Context) BrowseView {
	categories, err := c.src.Categories(ctx)
	if err != nil {
		c.logger.Warn("category fetch failed", "error", err)
		categories = nil
	}

	c.mu.Lock()
	c.browse = browseState{started: true, queue: categories}
	c.mu.Unlock()

	return c.LoadNextBatch(ctx)
}

// LoadNextBatch loads the next batch of categories. It is idempotent: while
// a batch is in flight, or when the queue is exhausted, it returns the
// current view without doing any work, so callers may invoke it on every
// scroll signal.
func (c *Coordinator) LoadNextBatch(ctx context.Context) BrowseView {
	c.mu.Lock()
	if !c.browse.started || c.browse.inFlight || len(c.browse.queue) == 0 {
		view := c.browseViewLocked()
		c.mu.Unlock()
		return view
	}

	n := c.cfg.CategoryBatchSize
	if n > len(c.browse.queue) {
		n = len(c.browse.queue)
	}
	batch := make([]string, n)
	copy(batch, c.browse.queue[:n])
	c.browse.inFlight = true
	c.mu.Unlock()

	started := time.Now()

	// Fast placeholders for every category in the batch; each category's
	// full-phase refinement continues in the background. The latency floor
	// applies once to the batch, not per section.
	for _, category := range batch {
		key := types.SectionKey{Category: category, Sort: types.SortNewest}
		c.loadSection(ctx, key, false)
		c.spawnVariantRefinement(category)
	}

	if remaining := c.cfg.MinLoadDuration - time.Since(started); remaining > 0 {
		c.wait(ctx, remaining)
	}

	c.mu.Lock()
	c.browse.queue = c.browse.queue[n:]
	c.browse.loaded = append(c.browse.loaded, batch...)
	c.browse.inFlight = false
	view := c.browseViewLocked()
	c.mu.Unlock()

	return view
}

// Browse returns the current global view without loading anything.
func (c *Coordinator) Browse() BrowseView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.browseViewLocked()
}

func (c *Coordinator) browseViewLocked() BrowseView {
	view := BrowseView{
		HasMore: len(c.browse.queue) > 0,
		Loading: c.browse.inFlight,
	}

	for _, category := range c.browse.loaded {
		key := types.SectionKey{Category: category, Sort: types.SortNewest}
		if st, ok := c.sections[key]; ok {
			view.Sections = append(view.Sections, c.snapshotLocked(st))
		}
	}
	return view
}

// spawnVariantRefinement fans out the four sort-variant aggregate fetches
// for a category and installs each as its own section. Variant failures are
// caught independently; a failed variant degrades to an empty list and its
// siblings are unaffected.
func (c *Coordinator) spawnVariantRefinement(category string) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		c.loadVariants(category)
	}()
}

// loadVariants derives each variant's context from the coordinator base via
// beginLoad, so shutdown and supersession both cancel the fetches. Every
// variant is seeded with fast-phase data first (the category's light fetch
// is already cached by this point), so no section skips FastLoaded on its
// way to FullLoaded.
func (c *Coordinator) loadVariants(category string) {
	var g errgroup.Group

	for _, sort := range types.AllSortKeys {
		key := types.SectionKey{Category: category, Sort: sort}
		st, gen, vctx := c.beginLoad(key)

		if items, ok := c.fastPhase(vctx, key); ok {
			c.apply(st, gen, items, types.PhaseFastLoaded)
		}

		g.Go(func() error {
			items, err := c.fetchVariant(vctx, key)
			if err != nil {
				// Keep whatever data the section already has; siblings are
				// never aborted.
				c.logger.Warn("sort variant fetch failed",
					"section", key.String(), "error", err)
				c.settle(st, gen)
				return nil
			}

			c.apply(st, gen, items, types.PhaseFullLoaded)
			return nil
		})
	}

	_ = g.Wait()
}

// fetchVariant is one sort variant's aggregate fetch with the precomputed
// sort fallback.
func (c *Coordinator) fetchVariant(ctx context.Context, key types.SectionKey) ([]types.ContentRecord, error) {
	rows, err := c.src.TopBySort(ctx, key.Sort, key.Category, c.cfg.PageSize)
	if err != nil {
		rows, err = c.src.FetchAggregate(ctx, source.AggregateQuery{
			Category: key.Category,
			Limit:    c.cfg.PageSize,
		})
		if err != nil {
			return nil, err
		}
	}
	return c.order(normalize.Records(rows), key), nil
}
