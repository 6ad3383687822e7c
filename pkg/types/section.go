package types

import "fmt"

// SortKey selects the base ordering of a section.
type SortKey string

const (
	SortNewest SortKey = "newest" // createdAt descending
	SortLikes  SortKey = "likes"  // likesCount descending
	SortRating SortKey = "rating" // avgRating descending
	SortViews  SortKey = "views"  // viewsCount descending
)

// AllSortKeys lists the four sort variants fetched during a full-phase load.
var AllSortKeys = []SortKey{SortNewest, SortLikes, SortRating, SortViews}

// ParseSortKey validates a user-supplied sort key, defaulting to SortNewest
// for the empty string.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "":
		return SortNewest, nil
	case SortNewest, SortLikes, SortRating, SortViews:
		return SortKey(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
}

// SectionKey identifies one independently loaded feed section. It is a
// comparable value type: two keys are the same section exactly when all
// three fields are equal.
type SectionKey struct {
	Category string
	Tag      string
	Sort     SortKey
}

// String renders the key for logging.
func (k SectionKey) String() string {
	return fmt.Sprintf("section(category=%q tag=%q sort=%s)", k.Category, k.Tag, k.Sort)
}

// Phase describes how much of a section has been loaded.
type Phase int

const (
	// PhaseEmpty means no data has arrived yet.
	PhaseEmpty Phase = iota
	// PhaseFastLoaded means the light projection is displayed; aggregates are
	// still zero. This is a valid terminal state when the full fetch fails.
	PhaseFastLoaded
	// PhaseFullLoaded means aggregate counts have been applied.
	PhaseFullLoaded
)

// String returns a readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseFastLoaded:
		return "fast-loaded"
	case PhaseFullLoaded:
		return "full-loaded"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}
