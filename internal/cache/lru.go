package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avelar/feedlight/pkg/types"
)

// DefaultLRUSize bounds the per-process category cache. Category counts are
// small in practice; the bound exists so a session can never grow the cache
// without limit.
const DefaultLRUSize = 256

// LRU is a process-local bounded cache. Safe for concurrent use.
type LRU struct {
	entries *lru.Cache[string, []types.ContentRecord]
}

var _ Cache = (*LRU)(nil)

// NewLRU creates a bounded LRU cache. size <= 0 uses DefaultLRUSize.
func NewLRU(size int) *LRU {
	if size <= 0 {
		size = DefaultLRUSize
	}

	entries, err := lru.New[string, []types.ContentRecord](size)
	if err != nil {
		// lru.New only fails for non-positive sizes, which we just excluded.
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &LRU{entries: entries}
}

// Get returns the cached records for a category.
func (c *LRU) Get(_ context.Context, category string) ([]types.ContentRecord, bool) {
	return c.entries.Get(category)
}

// Set stores the records for a category.
func (c *LRU) Set(_ context.Context, category string, records []types.ContentRecord) {
	c.entries.Add(category, records)
}

// Len reports the number of cached categories.
func (c *LRU) Len() int {
	return c.entries.Len()
}
