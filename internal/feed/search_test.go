package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelar/feedlight/internal/source"
)

func TestSearch_ScoresNarrowPool(t *testing.T) {
	src := &mockSource{
		aggRows: []source.Row{
			{"id": "a", "title": "Growth Hacking Weekly", "category": "Business"},
			{"id": "b", "title": "Sourdough Basics", "description": "growth of the starter"},
		},
	}
	c := newTestCoordinator(t, src, Config{PageSize: 2})

	res := c.Search(context.Background(), "growth")
	require.Len(t, res.Primary, 2)
	assert.Equal(t, "a", res.Primary[0].ID)
	assert.False(t, res.Fallback)

	_, _, agg := src.counts()
	assert.Equal(t, 1, agg, "pool was large enough, no widening fetch")
}

func TestSearch_BlankQueryIsEmpty(t *testing.T) {
	src := &mockSource{}
	c := newTestCoordinator(t, src, Config{})

	res := c.Search(context.Background(), "   !!  ")
	assert.Empty(t, res.Primary)
	assert.Empty(t, res.Related)

	_, _, agg := src.counts()
	assert.Zero(t, agg)
}

// A thin narrow pool triggers the unfiltered widening fetch, which is
// deduplicated by id against the narrow results.
func TestSearch_WidensThinPool(t *testing.T) {
	narrow := []source.Row{{"id": "a", "title": "Growth Hacking Weekly"}}
	wide := []source.Row{
		{"id": "a", "title": "Growth Hacking Weekly"},
		{"id": "b", "title": "Container Gardening"},
	}

	src := &mockSource{}
	src.aggFn = func(q source.AggregateQuery) ([]source.Row, error) {
		if q.TextPattern != "" {
			return narrow, nil
		}
		return wide, nil
	}
	c := newTestCoordinator(t, src, Config{PageSize: 4})

	res := c.Search(context.Background(), "growth")
	require.Len(t, res.Primary, 1)
	assert.Equal(t, "a", res.Primary[0].ID)

	_, _, agg := src.counts()
	assert.Equal(t, 2, agg)
}

// Widening is best-effort: when the unfiltered fetch fails, the narrow pool
// still produces a result.
func TestSearch_WideningFailureKeepsNarrowPool(t *testing.T) {
	src := &mockSource{}
	src.aggFn = func(q source.AggregateQuery) ([]source.Row, error) {
		if q.TextPattern != "" {
			return []source.Row{{"id": "a", "title": "Growth Hacking Weekly"}}, nil
		}
		return nil, errors.New("replica down")
	}
	c := newTestCoordinator(t, src, Config{PageSize: 4})

	res := c.Search(context.Background(), "growth")
	require.Len(t, res.Primary, 1)
	assert.Equal(t, "a", res.Primary[0].ID)
}

// A backend failure never surfaces: search degrades to an empty result.
func TestSearch_BackendFailureDegrades(t *testing.T) {
	src := &mockSource{aggErr: errors.New("replica down")}
	c := newTestCoordinator(t, src, Config{})

	res := c.Search(context.Background(), "growth")
	assert.Empty(t, res.Primary)
	assert.Empty(t, res.Related)
	assert.False(t, res.Fallback)
}
