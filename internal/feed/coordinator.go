package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/avelar/feedlight/internal/cache"
	"github.com/avelar/feedlight/internal/normalize"
	"github.com/avelar/feedlight/internal/ranker"
	"github.com/avelar/feedlight/internal/source"
	"github.com/avelar/feedlight/pkg/types"
)

// Config tunes the coordinator. Zero values select the defaults.
type Config struct {
	// PageSize is the per-section fetch limit.
	PageSize int
	// CategoryBatchSize is how many categories a browse batch loads.
	CategoryBatchSize int
	// MinLoadDuration is the artificial floor on how fast a load may report
	// completion, smoothing flash-of-content on fast networks. It defers
	// success signaling only; it is not a timeout.
	MinLoadDuration time.Duration
	// SearchPoolLimit caps the record pool fetched for client-side scoring.
	SearchPoolLimit int
}

const (
	defaultPageSize          = 12
	defaultCategoryBatchSize = 3
	defaultMinLoadDuration   = 350 * time.Millisecond
	defaultSearchPoolLimit   = 200
)

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.CategoryBatchSize <= 0 {
		c.CategoryBatchSize = defaultCategoryBatchSize
	}
	if c.MinLoadDuration < 0 {
		c.MinLoadDuration = 0
	} else if c.MinLoadDuration == 0 {
		c.MinLoadDuration = defaultMinLoadDuration
	}
	if c.SearchPoolLimit <= 0 {
		c.SearchPoolLimit = defaultSearchPoolLimit
	}
	return c
}

// Snapshot is the consumer-facing view of one section.
type Snapshot struct {
	Key     types.SectionKey      `json:"key"`
	Phase   types.Phase           `json:"-"`
	Items   []types.ContentRecord `json:"items"`
	Loading bool                  `json:"loading"`
}

// sectionState tracks the load lifecycle of one section. generation is a
// monotonically incrementing token; a fetch whose generation is stale when
// it completes is discarded.
type sectionState struct {
	key        types.SectionKey
	generation uint64
	phase      types.Phase
	items      []types.ContentRecord
	loading    bool
	cancel     context.CancelFunc // cancels in-flight background work
}

// Coordinator owns all mutable section state and the fast-phase cache.
type Coordinator struct {
	src       source.Source
	fastCache cache.Cache
	logger    *slog.Logger
	cfg       Config

	mu       sync.Mutex
	sections map[types.SectionKey]*sectionState
	browse   browseState

	// base is the lifetime context for background work; Close cancels it,
	// the substitute for a view unmounting.
	base     context.Context
	shutdown context.CancelFunc
	bg       sync.WaitGroup

	// wait is the sleep hook for the minimum-latency floor.
	wait func(ctx context.Context, d time.Duration)
}

// New creates a coordinator over a data source and an injected fast-phase
// cache.
func New(src source.Source, fastCache cache.Cache, logger *slog.Logger, cfg Config) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	base, shutdown := context.WithCancel(context.Background())
	return &Coordinator{
		src:       src,
		fastCache: fastCache,
		logger:    logger,
		cfg:       cfg.withDefaults(),
		sections:  make(map[types.SectionKey]*sectionState),
		base:      base,
		shutdown:  shutdown,
		wait:      sleepCtx,
	}
}

// Close cancels all background work and waits for it to settle. After Close
// no section state is mutated.
func (c *Coordinator) Close() {
	c.shutdown()
	c.bg.Wait()
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// LoadSection runs the fast phase for a section, kicks off the full phase in
// the background, and returns the fast-phase snapshot. Calling it again for
// the same key supersedes any in-flight work for that section.
func (c *Coordinator) LoadSection(ctx context.Context, key types.SectionKey) Snapshot {
	return c.loadSection(ctx, key, true)
}

// loadSection is LoadSection with the latency floor optional, so batch
// loaders can apply the floor once instead of per section.
func (c *Coordinator) loadSection(ctx context.Context, key types.SectionKey, floor bool) Snapshot {
	started := time.Now()

	st, gen, bgCtx := c.beginLoad(key)

	items, ok := c.fastPhase(ctx, key)
	if ok {
		c.apply(st, gen, items, types.PhaseFastLoaded)
	}

	c.spawnFullPhase(bgCtx, st, gen, key)

	// UX smoothing: never report completion faster than the floor.
	if floor {
		if remaining := c.cfg.MinLoadDuration - time.Since(started); remaining > 0 {
			c.wait(ctx, remaining)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(st)
}

// Refresh re-runs the full phase for a section in the background,
// superseding any in-flight work. It is the manual retry hook for sections
// stuck at fast-phase data.
func (c *Coordinator) Refresh(key types.SectionKey) {
	st, gen, bgCtx := c.beginLoad(key)
	c.spawnFullPhase(bgCtx, st, gen, key)
}

// Section returns the current snapshot for a key, if the section exists.
func (c *Coordinator) Section(key types.SectionKey) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.sections[key]
	if !ok {
		return Snapshot{}, false
	}
	return c.snapshotLocked(st), true
}

// beginLoad bumps the section's generation, cancels superseded in-flight
// work, and hands back a background context bound to the new generation.
func (c *Coordinator) beginLoad(key types.SectionKey) (*sectionState, uint64, context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.sections[key]
	if !ok {
		st = &sectionState{key: key, phase: types.PhaseEmpty}
		c.sections[key] = st
	}

	if st.cancel != nil {
		st.cancel()
	}

	st.generation++
	st.loading = true

	bgCtx, cancel := context.WithCancel(c.base)
	st.cancel = cancel

	return st, st.generation, bgCtx
}

// fastPhase returns the light-projection records for the section's category,
// from cache when possible. A fetch failure degrades to (nil, false).
func (c *Coordinator) fastPhase(ctx context.Context, key types.SectionKey) ([]types.ContentRecord, bool) {
	if cached, hit := c.fastCache.Get(ctx, key.Category); hit {
		return c.order(cached, key), true
	}

	rows, err := c.src.FetchLight(ctx, source.LightQuery{
		Category: key.Category,
		Limit:    c.cfg.PageSize,
	})
	if err != nil {
		c.logger.Warn("fast phase fetch failed", "section", key.String(), "error", err)
		return nil, false
	}

	records := normalize.Records(rows)
	c.fastCache.Set(ctx, key.Category, records)
	return c.order(records, key), true
}

// spawnFullPhase starts the aggregate fetch in the background. Its result is
// applied only if the generation still matches.
func (c *Coordinator) spawnFullPhase(ctx context.Context, st *sectionState, gen uint64, key types.SectionKey) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()

		items, err := c.fullPhase(ctx, key)
		if err != nil {
			// Failure isolation: keep the fast-phase placeholders.
			c.logger.Warn("full phase fetch failed; keeping fast data",
				"section", key.String(), "error", err)
			c.settle(st, gen)
			return
		}
		if ctx.Err() != nil {
			// Superseded or shut down; discard silently.
			return
		}

		c.apply(st, gen, items, types.PhaseFullLoaded)
	}()
}

// fullPhase fetches the aggregate projection for a section. The precomputed
// sort path is tried first; on error it falls back to a raw aggregate query
// plus client-side ranking.
func (c *Coordinator) fullPhase(ctx context.Context, key types.SectionKey) ([]types.ContentRecord, error) {
	if key.Tag == "" {
		rows, err := c.src.TopBySort(ctx, key.Sort, key.Category, c.cfg.PageSize)
		if err == nil {
			return c.order(normalize.Records(rows), key), nil
		}
		c.logger.Debug("precomputed sort unavailable; falling back to aggregate query",
			"section", key.String(), "error", err)
	}

	rows, err := c.src.FetchAggregate(ctx, source.AggregateQuery{
		Category: key.Category,
		Tag:      key.Tag,
		Limit:    c.cfg.PageSize,
	})
	if err != nil {
		return nil, err
	}
	return c.order(normalize.Records(rows), key), nil
}

// order applies the boost re-ranker for the section's tag and sort key.
func (c *Coordinator) order(records []types.ContentRecord, key types.SectionKey) []types.ContentRecord {
	var selected []string
	if key.Tag != "" {
		selected = []string{key.Tag}
	}
	return ranker.Rank(records, selected, key.Sort)
}

// apply installs items for a generation. Stale generations are discarded:
// a newer request owns the section now.
func (c *Coordinator) apply(st *sectionState, gen uint64, items []types.ContentRecord, phase types.Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st.generation != gen {
		return
	}

	st.items = items
	st.phase = phase
	if phase == types.PhaseFullLoaded {
		st.loading = false
	}
}

// settle marks a generation's load finished without changing its items.
func (c *Coordinator) settle(st *sectionState, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st.generation != gen {
		return
	}
	st.loading = false
}

func (c *Coordinator) snapshotLocked(st *sectionState) Snapshot {
	items := make([]types.ContentRecord, len(st.items))
	copy(items, st.items)

	return Snapshot{
		Key:     st.key,
		Phase:   st.phase,
		Items:   items,
		Loading: st.loading,
	}
}
