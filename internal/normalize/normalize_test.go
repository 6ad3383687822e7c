package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelar/feedlight/pkg/types"
)

func TestNormalize_Defaults(t *testing.T) {
	rec := Normalize(map[string]any{})

	assert.Equal(t, "", rec.ID)
	assert.Equal(t, types.DefaultTitle, rec.Title)
	assert.Equal(t, "", rec.Author)
	assert.Equal(t, "", rec.Description)
	assert.Empty(t, rec.Tags)
	assert.True(t, rec.CreatedAt.IsZero())
	assert.Zero(t, rec.LikesCount)
	assert.Zero(t, rec.ViewsCount)
	assert.Zero(t, rec.CommentsCount)
	assert.Zero(t, rec.AvgRating)
	assert.Zero(t, rec.RatingCount)
}

func TestNormalize_NilRow(t *testing.T) {
	assert.NotPanics(t, func() {
		rec := Normalize(nil)
		assert.Equal(t, types.DefaultTitle, rec.Title)
	})
}

func TestNormalize_FullRow(t *testing.T) {
	rec := Normalize(map[string]any{
		"id":          "rec-1",
		"slug":        " growth-hacking ",
		"title":       "Growth Hacking",
		"author":      "Jane Doe",
		"description": "tips and tricks",
		"category":    "Marketing",
		"tags":        []any{"SEO", " Growth ", "seo"},
		"image_url":   "https://cdn.example.com/a.png",
		"created_at":  "2025-06-01T10:00:00Z",
		"likes_count": float64(42),
		"views_count": "120",
		"avg_rating":  4.5,
	})

	require.NoError(t, rec.Validate())
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "growth-hacking", rec.Slug)
	assert.Equal(t, []string{"seo", "growth"}, rec.Tags)
	assert.Equal(t, int64(42), rec.LikesCount)
	assert.Equal(t, int64(120), rec.ViewsCount)
	assert.InDelta(t, 4.5, rec.AvgRating, 1e-9)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), rec.CreatedAt)
}

// Totality: a grab bag of malformed inputs must never panic and must always
// satisfy the record invariants.
func TestNormalize_Totality(t *testing.T) {
	rows := []map[string]any{
		{"id": 17, "title": nil, "tags": "not-json", "likes_count": "abc"},
		{"id": "x", "likes_count": map[string]any{"unexpected": 1}},
		{"id": "y", "views_count": []any{}},
		{"id": "z", "avg_rating": -3.5, "comments_count": -9},
		{"id": "w", "tags": []any{nil, 12, "  "}, "created_at": "yesterday"},
		{"id": "v", "title": "  ", "author": 3.14},
	}

	for _, row := range rows {
		var rec types.ContentRecord
		assert.NotPanics(t, func() { rec = Normalize(row) })
		assert.NoError(t, rec.Validate())
		assert.NotEmpty(t, rec.Title)
		for _, tag := range rec.Tags {
			assert.NotEmpty(t, tag)
		}
	}
}

func TestNormalize_AggregateShapes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"nil", nil, 0},
		{"bare number", float64(7), 7},
		{"numeric string", "12", 12},
		{"count wrapper", map[string]any{"count": float64(5)}, 5},
		{"avg wrapper", map[string]any{"avg": 3.0}, 3},
		{"value wrapper", map[string]any{"value": 9}, 9},
		{"rating wrapper", map[string]any{"rating": "4"}, 4},
		{"array of wrappers", []any{map[string]any{"count": 11}}, 11},
		{"empty array", []any{}, 0},
		{"negative clamped", float64(-4), 0},
		{"garbage string", "n/a", 0},
		{"bool", true, 0},
		{"nested array", []any{[]any{map[string]any{"count": 2}}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.in))
		})
	}
}

func TestTags_JSONString(t *testing.T) {
	assert.Equal(t, []string{"ai", "startups"}, Tags(`["AI", "Startups", "ai"]`))
	assert.Equal(t, []string{"finance"}, Tags("Finance"))
	assert.Empty(t, Tags(""))
}

func TestRecords_SkipsRowsWithoutID(t *testing.T) {
	recs := Records([]map[string]any{
		{"id": "a", "title": "A"},
		{"title": "no id"},
		{"id": "b"},
	})

	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
}
