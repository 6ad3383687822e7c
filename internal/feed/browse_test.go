package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelar/feedlight/internal/source"
	"github.com/avelar/feedlight/pkg/types"
)

func TestBrowse_BatchedCategoryExpansion(t *testing.T) {
	src := &mockSource{
		lightRows:  []source.Row{{"id": "a", "title": "A"}},
		categories: []string{"Business", "Cooking", "Finance", "Health", "Travel"},
	}
	c := newTestCoordinator(t, src, Config{CategoryBatchSize: 2})
	ctx := context.Background()

	view := c.StartBrowse(ctx)
	assert.Len(t, view.Sections, 2)
	assert.True(t, view.HasMore)
	assert.Equal(t, "Business", view.Sections[0].Key.Category)
	assert.Equal(t, "Cooking", view.Sections[1].Key.Category)

	view = c.LoadNextBatch(ctx)
	assert.Len(t, view.Sections, 4)
	assert.True(t, view.HasMore)

	view = c.LoadNextBatch(ctx)
	assert.Len(t, view.Sections, 5)
	assert.False(t, view.HasMore)
}

// LoadNextBatch on an exhausted queue is a no-op, not an error.
func TestBrowse_LoadNextBatchIdempotentWhenExhausted(t *testing.T) {
	src := &mockSource{
		lightRows:  []source.Row{{"id": "a", "title": "A"}},
		categories: []string{"Business"},
	}
	c := newTestCoordinator(t, src, Config{CategoryBatchSize: 3})
	ctx := context.Background()

	c.StartBrowse(ctx)
	c.bg.Wait()

	before, top, agg := src.counts()
	view := c.LoadNextBatch(ctx)
	afterLight, afterTop, afterAgg := src.counts()

	assert.Equal(t, before, afterLight)
	assert.Equal(t, top, afterTop)
	assert.Equal(t, agg, afterAgg)
	assert.Len(t, view.Sections, 1)
	assert.False(t, view.HasMore)
	assert.False(t, view.Loading)
}

// LoadNextBatch before StartBrowse has nothing to load.
func TestBrowse_NotStarted(t *testing.T) {
	c := newTestCoordinator(t, &mockSource{}, Config{})

	view := c.LoadNextBatch(context.Background())
	assert.Empty(t, view.Sections)
	assert.False(t, view.HasMore)
}

// A category fetch failure degrades to an empty view instead of blocking
// the browse surface.
func TestBrowse_CategoriesFailureDegrades(t *testing.T) {
	src := &mockSource{catErr: errors.New("replica down")}
	c := newTestCoordinator(t, src, Config{})

	view := c.StartBrowse(context.Background())
	assert.Empty(t, view.Sections)
	assert.False(t, view.HasMore)
	assert.False(t, view.Loading)
}

// Each browsed category gains its four sort-variant sections in the
// background, and one variant failing does not block the others.
func TestBrowse_VariantRefinement(t *testing.T) {
	src := &mockSource{
		lightRows:  []source.Row{{"id": "a", "title": "A"}},
		categories: []string{"Business"},
	}
	c := newTestCoordinator(t, src, Config{CategoryBatchSize: 1})

	c.StartBrowse(context.Background())
	c.bg.Wait()

	for _, sort := range types.AllSortKeys {
		key := types.SectionKey{Category: "Business", Sort: sort}
		snap, ok := c.Section(key)
		require.True(t, ok, "missing variant %s", sort)
		assert.NotEmpty(t, snap.Items)
	}
}

// Variant sections walk the full phase ladder: while the aggregate fetch is
// still in flight they hold fast-phase data, never an empty section.
func TestBrowse_VariantSeededWithFastData(t *testing.T) {
	gate := make(chan struct{})
	src := &mockSource{
		lightRows:  []source.Row{{"id": "a", "title": "A"}},
		categories: []string{"Business"},
		topGate:    gate,
	}
	c := newTestCoordinator(t, src, Config{CategoryBatchSize: 1})

	c.StartBrowse(context.Background())

	likes := types.SectionKey{Category: "Business", Sort: types.SortLikes}
	require.Eventually(t, func() bool {
		snap, ok := c.Section(likes)
		return ok && snap.Phase == types.PhaseFastLoaded && len(snap.Items) > 0
	}, time.Second, time.Millisecond, "variant should hold fast-phase data while refining")

	close(gate)
	c.bg.Wait()

	snap, ok := c.Section(likes)
	require.True(t, ok)
	assert.Equal(t, types.PhaseFullLoaded, snap.Phase)
	assert.NotEmpty(t, snap.Items)
}

// Variant fetch failures degrade: the fast-phase data survives.
func TestBrowse_VariantFailureIsolated(t *testing.T) {
	src := &mockSource{
		lightRows:  []source.Row{{"id": "a", "title": "A"}},
		categories: []string{"Business"},
		topErr:     errors.New("replica down"),
		aggErr:     errors.New("replica down"),
	}
	c := newTestCoordinator(t, src, Config{CategoryBatchSize: 1})

	view := c.StartBrowse(context.Background())
	c.bg.Wait()

	// The fast-phase placeholder stays intact.
	require.Len(t, view.Sections, 1)
	key := types.SectionKey{Category: "Business", Sort: types.SortNewest}
	snap, ok := c.Section(key)
	require.True(t, ok)
	assert.NotEmpty(t, snap.Items)
	assert.False(t, snap.Loading)
}

// The latency floor applies once per batch, not once per category.
func TestBrowse_BatchFloorAppliedOnce(t *testing.T) {
	src := &mockSource{
		lightRows:  []source.Row{{"id": "a", "title": "A"}},
		categories: []string{"Business", "Cooking", "Finance"},
	}
	c := newTestCoordinator(t, src, Config{
		CategoryBatchSize: 3,
		MinLoadDuration:   100 * time.Millisecond,
	})

	var waits []time.Duration
	c.wait = func(ctx context.Context, d time.Duration) { waits = append(waits, d) }

	c.StartBrowse(context.Background())

	require.Len(t, waits, 1)
	assert.LessOrEqual(t, waits[0], 100*time.Millisecond)
}
