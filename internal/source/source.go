package source

import (
	"context"
	"errors"

	"github.com/avelar/feedlight/pkg/types"
)

var (
	// ErrClosed is returned by operations on a closed source.
	ErrClosed = errors.New("source is closed")
)

// Row is one raw backend row, keyed by column name. Rows are fed to
// normalize.Normalize; sources never build ContentRecords themselves.
type Row = map[string]any

// LightQuery selects the cheap display projection of the content table.
type LightQuery struct {
	// Category filters to one category when non-empty.
	Category string
	// Limit caps the number of rows. Non-positive means DefaultLimit.
	Limit int
}

// AggregateQuery selects the full projection including engagement joins.
type AggregateQuery struct {
	Category string
	// Tag filters to rows whose tag set contains this (normalized) tag.
	Tag string
	// TextPattern, when non-empty, matches title, author, or description
	// case-insensitively.
	TextPattern string
	Limit       int
}

// DefaultLimit bounds queries whose callers pass no explicit limit.
const DefaultLimit = 50

// Source is the data-source collaborator the feed coordinator fetches from.
type Source interface {
	// FetchLight runs the light projection query, newest first.
	FetchLight(ctx context.Context, q LightQuery) ([]Row, error)

	// FetchAggregate runs the aggregate projection query, newest first.
	FetchAggregate(ctx context.Context, q AggregateQuery) ([]Row, error)

	// TopBySort returns up to limit rows ordered by the precomputed sort.
	// Implementations may fail here even when FetchAggregate works; callers
	// are expected to fall back to FetchAggregate plus client-side ranking.
	TopBySort(ctx context.Context, sort types.SortKey, category string, limit int) ([]Row, error)

	// Categories lists the distinct categories present in the store.
	Categories(ctx context.Context) ([]string, error)

	// SaveMany upserts content records (the ingest path).
	SaveMany(ctx context.Context, records []types.ContentRecord) error

	// Close releases the underlying connection.
	Close() error
}

// EngagementRecorder is implemented by sources that also accept engagement
// writes. Both bundled sources implement it; the consumer surface uses it
// for the like/view/comment/rate endpoints.
type EngagementRecorder interface {
	Like(ctx context.Context, contentID, userID string) error
	View(ctx context.Context, contentID string) error
	Comment(ctx context.Context, contentID, body string) error
	Rate(ctx context.Context, contentID string, value float64) error
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
