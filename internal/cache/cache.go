// Package cache provides the injected fast-phase record cache.
//
// The feed coordinator caches fast-phase (light projection) results per
// category so repeat visits within a session skip the network round trip,
// trading staleness for latency. The cache is passed into the coordinator's
// constructor rather than living as ambient state, so tests can isolate it
// and deployments can choose between a process-local bounded LRU and a
// shared Redis cache.
package cache

import (
	"context"

	"github.com/avelar/feedlight/pkg/types"
)

// Cache stores fast-phase record sets keyed by category. The empty key is
// valid and denotes the unfiltered global listing.
type Cache interface {
	// Get returns the cached records for a category and whether they were
	// present. A miss is (nil, false); errors degrade to misses.
	Get(ctx context.Context, category string) ([]types.ContentRecord, bool)

	// Set stores the records for a category, replacing any previous entry.
	Set(ctx context.Context, category string, records []types.ContentRecord)

	// Len reports the number of cached categories, where known.
	Len() int
}
